package poller

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"

	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/ShinAdam/Badminton-Elo-App/internal/render"
	"github.com/ShinAdam/Badminton-Elo-App/internal/storage"
)

// MatchSource fetches a player's matches from the rating service
type MatchSource interface {
	GetUserMatches(ctx context.Context, id models.UserID) ([]models.MatchRecord, error)
}

// Repository is the slice of storage the poller reads and writes
type Repository interface {
	GetAllTrackedPlayers() ([]*storage.TrackedPlayer, error)
	UpdateLastMatch(playerID, matchID int64) error
	GetSubscriptionsByPlayer(playerID int64) ([]*storage.Subscription, error)
	GetGuildSettings(guildID string) (*storage.GuildSettings, error)
}

// Notifier posts embeds to a channel; satisfied by *discordgo.Session
type Notifier interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Poller periodically checks tracked players for newly recorded matches
type Poller struct {
	repo      Repository
	source    MatchSource
	notifier  Notifier
	projector *matchview.Projector
	interval  time.Duration

	scheduler gocron.Scheduler
}

// New creates a new Poller
func New(repo Repository, source MatchSource, notifier Notifier, projector *matchview.Projector, intervalSeconds int) *Poller {
	return &Poller{
		repo:      repo,
		source:    source,
		notifier:  notifier,
		projector: projector,
		interval:  time.Duration(intervalSeconds) * time.Second,
	}
}

// Start schedules the polling job; the first poll runs immediately
func (p *Poller) Start(ctx context.Context) error {
	slog.Info("Starting poller", "interval", p.interval)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(p.poll, ctx),
		gocron.WithName("match-poller"),
		// A slow poll must not overlap the next one
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	scheduler.Start()
	p.scheduler = scheduler
	return nil
}

// Stop waits for a running poll to finish and shuts the scheduler down
func (p *Poller) Stop() error {
	if p.scheduler == nil {
		return nil
	}
	slog.Info("Poller stopped")
	return p.scheduler.Shutdown()
}

// poll checks all tracked players for new matches
func (p *Poller) poll(ctx context.Context) {
	players, err := p.repo.GetAllTrackedPlayers()
	if err != nil {
		slog.Error("Failed to get tracked players", "error", err)
		return
	}

	if len(players) == 0 {
		slog.Debug("No players to poll")
		return
	}

	slog.Debug("Polling players", "count", len(players))

	for _, player := range players {
		select {
		case <-ctx.Done():
			return
		default:
			p.checkPlayer(ctx, player)
		}
	}
}

// checkPlayer announces matches recorded since the last poll
func (p *Poller) checkPlayer(ctx context.Context, player *storage.TrackedPlayer) {
	matches, err := p.source.GetUserMatches(ctx, models.UserID(player.UserID))
	if err != nil {
		slog.Error("Failed to get matches", "player", player.Username, "error", err)
		return
	}

	var highest int64
	for _, m := range matches {
		highest = max(highest, m.ID)
	}

	// Skip if this is the first poll (no previous state recorded).
	// A player with no matches yet is recorded as 0, so their first match is announced.
	if !player.LastMatchID.Valid {
		slog.Info("Setting initial state", "player", player.Username, "matchID", highest)
		if err := p.repo.UpdateLastMatch(player.ID, highest); err != nil {
			slog.Error("Failed to update state", "error", err)
		}
		return
	}

	unseen := make([]models.MatchRecord, 0)
	for _, m := range matches {
		if m.ID > player.LastMatchID.Int64 {
			unseen = append(unseen, m)
		}
	}

	if len(unseen) == 0 {
		slog.Debug("No new matches", "player", player.Username)
		return
	}

	slog.Info("New matches detected", "player", player.Username, "count", len(unseen))

	// Announce oldest first so channels read chronologically
	ordered := matchview.SortMatches(unseen)
	slices.Reverse(ordered)

	persp := matchview.Perspective{
		Subject: matchview.Subject{ID: models.UserID(player.UserID), Username: player.Username},
	}
	for _, m := range ordered {
		p.sendNotifications(player, render.MatchEmbed(player.Username, p.projector.View(m, persp)))
	}

	if err := p.repo.UpdateLastMatch(player.ID, highest); err != nil {
		slog.Error("Failed to update state", "error", err)
	}
}

// sendNotifications sends an embed to every guild subscribed to player
func (p *Poller) sendNotifications(player *storage.TrackedPlayer, embed *discordgo.MessageEmbed) {
	subs, err := p.repo.GetSubscriptionsByPlayer(player.ID)
	if err != nil {
		slog.Error("Failed to get subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		settings, err := p.repo.GetGuildSettings(sub.GuildID)
		if err != nil {
			slog.Warn("No notification channel set for guild", "guildID", sub.GuildID)
			continue
		}

		_, err = p.notifier.ChannelMessageSendEmbed(settings.NotificationChannelID, embed)
		if err != nil {
			slog.Error("Failed to send notification", "guildID", sub.GuildID, "error", err)
		} else {
			slog.Info("Sent notification", "player", player.Username, "guildID", sub.GuildID)
		}
	}
}
