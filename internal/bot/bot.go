package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ShinAdam/Badminton-Elo-App/internal/api"
	"github.com/ShinAdam/Badminton-Elo-App/internal/config"
	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/ShinAdam/Badminton-Elo-App/internal/poller"
	"github.com/ShinAdam/Badminton-Elo-App/internal/session"
	"github.com/ShinAdam/Badminton-Elo-App/internal/storage"
)

// RatingAPI is the part of the rating service the bot reads
type RatingAPI interface {
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserMatches(ctx context.Context, id models.UserID) ([]models.MatchRecord, error)
	GetFullMatchHistory(ctx context.Context) ([]models.MatchRecord, error)
	GetRankings(ctx context.Context) ([]models.Ranking, error)
}

// Bot represents the Discord bot instance
type Bot struct {
	config    *config.Config
	session   *discordgo.Session
	repo      *storage.Repository
	api       RatingAPI
	sessions  *session.Manager
	projector *matchview.Projector
	poller    *poller.Poller
	commands  []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	// Initialize storage
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Rating service client; the session manager supplies its credential
	client := api.NewClient(cfg.APIBaseURL, api.WithHTTPClient(&http.Client{
		Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}))
	sessions := session.NewManager(client, storage.NewCredentialStore(repo))
	client.SetTokenSource(sessions)

	b := &Bot{
		config:    cfg,
		session:   dg,
		repo:      repo,
		api:       client,
		sessions:  sessions,
		projector: matchview.NewProjector(cfg.DateLayout),
	}

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start restores the service session, opens the Discord connection and
// starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	if err := b.authenticate(ctx); err != nil {
		return err
	}

	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Start the match poller
	b.poller = poller.New(b.repo, b.api, b.session, b.projector, b.config.PollingIntervalSeconds)
	if err := b.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	return nil
}

// authenticate restores a stored session, falling back to the configured
// service account
func (b *Bot) authenticate(ctx context.Context) error {
	current := b.sessions.Initialize(ctx)
	if current.Authenticated() {
		slog.Info("Restored rating service session", "user", current.ViewerUsername)
		return nil
	}

	if b.config.APIUsername == "" {
		slog.Warn("No rating service session; protected endpoints will fail until credentials are configured")
		return nil
	}

	if err := b.sessions.Login(ctx, b.config.APIUsername, b.config.APIPassword); err != nil {
		return fmt.Errorf("failed to log in to rating service: %w", err)
	}
	slog.Info("Logged in to rating service", "user", b.sessions.Current().ViewerUsername)
	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Stop the poller
	if b.poller != nil {
		if err := b.poller.Stop(); err != nil {
			slog.Error("Failed to stop poller", "error", err)
		}
	}

	// Close storage
	if b.repo != nil {
		b.repo.Close()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "track":
		b.handleTrack(s, i)
	case "untrack":
		b.handleUntrack(s, i)
	case "list":
		b.handleList(s, i)
	case "setchannel":
		b.handleSetChannel(s, i)
	case "history":
		b.handleHistory(s, i)
	case "profile":
		b.handleProfile(s, i)
	case "ranking":
		b.handleRanking(s, i)
	case "whoami":
		b.handleWhoami(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}
