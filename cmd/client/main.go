package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ShinAdam/Badminton-Elo-App/internal/api"
	"github.com/ShinAdam/Badminton-Elo-App/internal/config"
	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/ShinAdam/Badminton-Elo-App/internal/render"
	"github.com/ShinAdam/Badminton-Elo-App/internal/session"
	"github.com/ShinAdam/Badminton-Elo-App/internal/storage"
)

const commands = "login|logout|whoami|history|recent|profile|ranking|match|create-match|register|edit"

var errNotLoggedIn = errors.New("not logged in; run -cmd login first")

// options carries every flag; each command reads the ones it needs
type options struct {
	cmd         string
	userID      string
	matchID     int64
	page        int
	username    string
	password    string
	bio         string
	winners     string
	losers      string
	winnerScore int
	loserScore  int
	date        string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "whoami", "Command: "+commands)
	flag.StringVar(&opts.userID, "id", "", "User ID (history/profile)")
	flag.Int64Var(&opts.matchID, "match", 0, "Match ID (match)")
	flag.IntVar(&opts.page, "page", 1, "Page number (history/profile)")
	flag.StringVar(&opts.username, "username", "", "Username (login/register/edit)")
	flag.StringVar(&opts.password, "password", "", "Password (login/register/edit)")
	flag.StringVar(&opts.bio, "bio", "", "Bio (register/edit)")
	flag.StringVar(&opts.winners, "winners", "", "Winning pair as comma separated user IDs (create-match)")
	flag.StringVar(&opts.losers, "losers", "", "Losing pair as comma separated user IDs (create-match)")
	flag.IntVar(&opts.winnerScore, "winner-score", 0, "Winning score (create-match)")
	flag.IntVar(&opts.loserScore, "loser-score", 0, "Losing score (create-match)")
	flag.StringVar(&opts.date, "date", "", "Date played YYYY-MM-DD, defaults to today (create-match)")
	serverFlag := flag.String("server", "", "Override rating service base URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if *serverFlag != "" {
		cfg.APIBaseURL = strings.TrimRight(*serverFlag, "/")
	}
	// Logs go to stderr so tables on stdout stay clean
	config.SetupLogging(os.Stderr, cfg.LogLevel)

	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer repo.Close()

	a := newApp(cfg, repo, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := a.run(ctx, opts); err != nil {
		fmt.Println("Error:", describe(err))
		repo.Close()
		os.Exit(1)
	}
}

type app struct {
	cfg       *config.Config
	client    *api.Client
	sessions  *session.Manager
	projector *matchview.Projector
	out       io.Writer
}

func newApp(cfg *config.Config, repo *storage.Repository, out io.Writer) *app {
	client := api.NewClient(cfg.APIBaseURL, api.WithHTTPClient(&http.Client{
		Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}))
	sessions := session.NewManager(client, storage.NewCredentialStore(repo))
	client.SetTokenSource(sessions)

	return &app{
		cfg:       cfg,
		client:    client,
		sessions:  sessions,
		projector: matchview.NewProjector(cfg.DateLayout),
		out:       out,
	}
}

// run restores the session before dispatching, so every command sees a
// settled Authenticated/Unauthenticated state
func (a *app) run(ctx context.Context, opts options) error {
	current := a.sessions.Initialize(ctx)
	slog.Debug("Session restored", "state", current.State, "user", current.ViewerUsername)

	switch opts.cmd {
	case "login":
		return a.login(ctx, opts)
	case "logout":
		a.sessions.Logout(ctx)
		_, err := fmt.Fprintln(a.out, "Logged out.")
		return err
	case "whoami":
		return a.whoami()
	case "history":
		return a.history(ctx, opts)
	case "recent":
		return a.recent(ctx)
	case "profile":
		return a.profile(ctx, opts)
	case "ranking":
		return a.ranking(ctx)
	case "match":
		return a.match(ctx, opts)
	case "create-match":
		return a.createMatch(ctx, opts)
	case "register":
		return a.register(ctx, opts)
	case "edit":
		return a.edit(ctx, opts)
	default:
		return fmt.Errorf("unknown command %q (want %s)", opts.cmd, commands)
	}
}

func (a *app) login(ctx context.Context, opts options) error {
	if opts.username == "" || opts.password == "" {
		return errors.New("-username and -password required")
	}
	if err := a.sessions.Login(ctx, opts.username, opts.password); err != nil {
		return err
	}
	current := a.sessions.Current()
	_, err := fmt.Fprintf(a.out, "Logged in as %s (#%s).\n", current.ViewerUsername, current.ViewerID)
	return err
}

func (a *app) whoami() error {
	current := a.sessions.Current()
	if !current.Authenticated() {
		_, err := fmt.Fprintln(a.out, "Not logged in.")
		return err
	}
	_, err := fmt.Fprintf(a.out, "%s (#%s)\n", current.ViewerUsername, current.ViewerID)
	return err
}

func (a *app) viewerPerspective() matchview.Perspective {
	current := a.sessions.Current()
	if !current.Authenticated() {
		return matchview.Perspective{}
	}
	return matchview.Perspective{
		Viewer: matchview.Subject{ID: current.ViewerID, Username: current.ViewerUsername},
	}
}

// writePage clamps the requested page and prints it
func (a *app) writePage(records []models.MatchRecord, persp matchview.Perspective, pageSize, page int) error {
	paginator, err := matchview.NewPaginator(pageSize, len(records))
	if err != nil {
		return err
	}
	if paginator.GoTo(page) != page {
		slog.Debug("Page out of range, clamped", "requested", page, "page", paginator.Current())
	}

	projected, err := a.projector.Project(records, persp, paginator.PageSize(), paginator.Current())
	if err != nil {
		return err
	}
	return render.HistoryTable(a.out, projected)
}

func (a *app) history(ctx context.Context, opts options) error {
	if opts.userID == "" {
		records, err := a.client.GetFullMatchHistory(ctx)
		if err != nil {
			return err
		}
		return a.writePage(records, a.viewerPerspective(), a.cfg.HistoryPageSize, opts.page)
	}

	id, err := models.ParseUserID(opts.userID)
	if err != nil {
		return err
	}
	user, err := a.client.GetUser(ctx, id)
	if err != nil {
		return err
	}
	records, err := a.client.GetUserMatches(ctx, id)
	if err != nil {
		return err
	}
	persp := a.viewerPerspective()
	persp.Subject = matchview.Subject{ID: user.ID, Username: user.Username}
	return a.writePage(records, persp, a.cfg.ProfilePageSize, opts.page)
}

// recent prints the service's latest matches on a single page
func (a *app) recent(ctx context.Context) error {
	records, err := a.client.GetRecentMatches(ctx)
	if err != nil {
		return err
	}
	return a.writePage(records, a.viewerPerspective(), max(len(records), 1), 1)
}

func (a *app) profile(ctx context.Context, opts options) error {
	id := a.sessions.Current().ViewerID
	if opts.userID != "" {
		parsed, err := models.ParseUserID(opts.userID)
		if err != nil {
			return err
		}
		id = parsed
	}
	if id == 0 {
		return errors.New("-id required when not logged in")
	}

	user, err := a.client.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := render.Profile(a.out, user); err != nil {
		return err
	}
	fmt.Fprintln(a.out)

	records, err := a.client.GetUserMatches(ctx, id)
	if err != nil {
		return err
	}
	persp := a.viewerPerspective()
	persp.Subject = matchview.Subject{ID: user.ID, Username: user.Username}
	return a.writePage(records, persp, a.cfg.ProfilePageSize, opts.page)
}

func (a *app) ranking(ctx context.Context) error {
	rankings, err := a.client.GetRankings(ctx)
	if err != nil {
		return err
	}
	return render.RankingTable(a.out, rankings)
}

func (a *app) match(ctx context.Context, opts options) error {
	if opts.matchID <= 0 {
		return errors.New("-match required")
	}
	m, err := a.client.GetMatch(ctx, opts.matchID)
	if err != nil {
		return err
	}
	return render.MatchDetail(a.out, a.projector.View(*m, a.viewerPerspective()))
}

func (a *app) createMatch(ctx context.Context, opts options) error {
	if !a.sessions.Current().Authenticated() {
		return errNotLoggedIn
	}

	winners, err := parseUserIDs(opts.winners)
	if err != nil {
		return fmt.Errorf("-winners: %w", err)
	}
	losers, err := parseUserIDs(opts.losers)
	if err != nil {
		return fmt.Errorf("-losers: %w", err)
	}
	played := models.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	if opts.date != "" {
		if played, err = models.ParseDate(opts.date); err != nil {
			return err
		}
	}

	m, err := a.client.CreateMatch(ctx, models.MatchCreate{
		Winners:     winners,
		Losers:      losers,
		WinnerScore: opts.winnerScore,
		LoserScore:  opts.loserScore,
		DatePlayed:  played,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Match recorded.")
	return render.MatchDetail(a.out, a.projector.View(*m, a.viewerPerspective()))
}

func (a *app) register(ctx context.Context, opts options) error {
	reg := models.Registration{Username: opts.username, Password: opts.password}
	if opts.bio != "" {
		reg.Bio = &opts.bio
	}
	user, err := a.client.Register(ctx, reg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Registered %s (#%s). Run -cmd login to sign in.\n", user.Username, user.ID)
	return err
}

func (a *app) edit(ctx context.Context, opts options) error {
	current := a.sessions.Current()
	if !current.Authenticated() {
		return errNotLoggedIn
	}

	update := models.UserUpdate{Username: opts.username, Password: opts.password}
	if opts.bio != "" {
		update.Bio = &opts.bio
	}
	if update == (models.UserUpdate{}) {
		return errors.New("nothing to update; pass -username, -password or -bio")
	}

	user, err := a.client.UpdateUser(ctx, current.ViewerID, update)
	if err != nil {
		return err
	}
	return render.Profile(a.out, user)
}

// parseUserIDs reads "3,7" into user IDs
func parseUserIDs(s string) ([]models.UserID, error) {
	var ids []models.UserID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := models.ParseUserID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// describe maps API errors to hints for the terminal
func describe(err error) string {
	var (
		authErr *api.AuthenticationError
		expired *api.SessionExpiredError
		netErr  *api.NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return "invalid username or password"
	case errors.As(err, &expired):
		return "your session has expired; run -cmd login again"
	case errors.As(err, &netErr):
		return fmt.Sprintf("could not reach the rating service: %v", netErr.Err)
	default:
		return err.Error()
	}
}
