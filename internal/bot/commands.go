package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ShinAdam/Badminton-Elo-App/internal/api"
	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/ShinAdam/Badminton-Elo-App/internal/render"
	"github.com/ShinAdam/Badminton-Elo-App/internal/session"
	"github.com/ShinAdam/Badminton-Elo-App/internal/storage"
)

const (
	// Page buttons shown either side of the current page
	pageWindowRadius = 2
	rankingLimit     = 10
	commandTimeout   = 10 * time.Second
)

var minUserID = float64(1)

func userIDOption(required bool, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "user_id",
		Description: description,
		Required:    required,
		MinValue:    &minUserID,
	}
}

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "track",
			Description: "Announce new matches of a player in this server",
			Options: []*discordgo.ApplicationCommandOption{
				userIDOption(true, "Rating service user ID"),
			},
		},
		{
			Name:        "untrack",
			Description: "Stop announcing a player's matches",
			Options: []*discordgo.ApplicationCommandOption{
				userIDOption(true, "Rating service user ID"),
			},
		},
		{
			Name:        "list",
			Description: "List all tracked players in this server",
		},
		{
			Name:        "setchannel",
			Description: "Set the channel for match notifications",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to send notifications to",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		{
			Name:        "history",
			Description: "Show match history, for everyone or a single player",
			Options: []*discordgo.ApplicationCommandOption{
				userIDOption(false, "Only matches of this player"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number (defaults to 1)",
					Required:    false,
				},
			},
		},
		{
			Name:        "profile",
			Description: "Show a player's rating and record",
			Options: []*discordgo.ApplicationCommandOption{
				userIDOption(true, "Rating service user ID"),
			},
		},
		{
			Name:        "ranking",
			Description: "Show the leaderboard",
		},
		{
			Name:        "whoami",
			Description: "Show which rating service account the bot uses",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	appID := b.config.DiscordApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			appID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleTrack handles the /track command
func (b *Bot) handleTrack(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := models.UserID(optionMap(i)["user_id"].IntValue())

	// Respond immediately to avoid timeout
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	msg, err := b.trackPlayer(ctx, i.GuildID, interactionUserID(i), userID)
	if err != nil {
		slog.Error("Failed to track player", "userID", userID, "error", err)
		msg = describeError(err)
	}
	b.editResponse(s, i, msg)
}

// trackPlayer stores the player (seeding the newest match id so old matches
// are not announced) and subscribes the guild to it
func (b *Bot) trackPlayer(ctx context.Context, guildID, registeredBy string, userID models.UserID) (string, error) {
	user, err := b.api.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	player, err := b.repo.GetTrackedPlayerByUserID(int64(userID))
	if errors.Is(err, storage.ErrNotFound) {
		player = &storage.TrackedPlayer{UserID: int64(userID), Username: user.Username}

		matches, err := b.api.GetUserMatches(ctx, userID)
		if err != nil {
			// Continue without last match ID - will be set on first poll
			slog.Warn("Failed to get initial match history", "userID", userID, "error", err)
		} else {
			// Observed now, even with no matches, so the first one gets announced
			player.LastMatchID.Valid = true
			for _, m := range matches {
				player.LastMatchID.Int64 = max(player.LastMatchID.Int64, m.ID)
			}
		}

		if err := b.repo.CreateTrackedPlayer(player); err != nil {
			return "", fmt.Errorf("failed to save player: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to look up player: %w", err)
	}

	sub := &storage.Subscription{
		PlayerID:     player.ID,
		GuildID:      guildID,
		RegisteredBy: registeredBy,
	}
	if err := b.repo.CreateSubscription(sub); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Sprintf("`%s` is already being tracked in this server.", player.Username), nil
		}
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}

	return fmt.Sprintf("Now tracking `%s`! New matches will be announced here.", player.Username), nil
}

// handleUntrack handles the /untrack command
func (b *Bot) handleUntrack(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := models.UserID(optionMap(i)["user_id"].IntValue())
	respondWithMessage(s, i, b.untrackPlayer(i.GuildID, userID))
}

func (b *Bot) untrackPlayer(guildID string, userID models.UserID) string {
	player, err := b.repo.GetTrackedPlayerByUserID(int64(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("Player `%s` is not tracked.", userID)
	}
	if err != nil {
		slog.Error("Failed to look up player", "error", err)
		return "Failed to untrack player. Please try again."
	}

	removed, err := b.repo.DeleteSubscription(player.ID, guildID)
	if err != nil {
		slog.Error("Failed to delete subscription", "error", err)
		return "Failed to untrack player. Please try again."
	}
	if !removed {
		return fmt.Sprintf("`%s` is not tracked in this server.", player.Username)
	}
	return fmt.Sprintf("Stopped tracking `%s`.", player.Username)
}

// handleList handles the /list command
func (b *Bot) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondWithMessage(s, i, b.listPlayers(i.GuildID))
}

func (b *Bot) listPlayers(guildID string) string {
	players, err := b.repo.GetTrackedPlayersByGuild(guildID)
	if err != nil {
		slog.Error("Failed to get tracked players", "error", err)
		return "Failed to retrieve player list."
	}

	if len(players) == 0 {
		return "No players are tracked in this server.\nUse `/track` to add one!"
	}

	var sb strings.Builder
	sb.WriteString("**Tracked Players:**\n\n")
	for idx, p := range players {
		sb.WriteString(fmt.Sprintf("%d. `%s` (ID %d)\n", idx+1, p.Username, p.UserID))
	}
	return sb.String()
}

// handleSetChannel handles the /setchannel command
func (b *Bot) handleSetChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := optionMap(i)["channel"].ChannelValue(s)

	settings := &storage.GuildSettings{
		GuildID:               i.GuildID,
		NotificationChannelID: channel.ID,
	}

	if err := b.repo.UpsertGuildSettings(settings); err != nil {
		slog.Error("Failed to save guild settings", "error", err)
		respondWithMessage(s, i, "Failed to set notification channel. Please try again.")
		return
	}

	respondWithMessage(s, i, fmt.Sprintf("Match notifications will be sent to <#%s>", channel.ID))
}

// handleHistory handles the /history command
func (b *Bot) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	var target models.UserID
	if opt, ok := opts["user_id"]; ok {
		target = models.UserID(opt.IntValue())
	}
	page := 1
	if opt, ok := opts["page"]; ok {
		page = int(opt.IntValue())
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	embed, err := b.historyEmbed(ctx, b.sessions.Current(), target, page)
	if err != nil {
		slog.Error("Failed to build history", "userID", target, "error", err)
		b.editResponse(s, i, describeError(err))
		return
	}
	b.editEmbed(s, i, embed)
}

// historyEmbed renders one page of history: the global history for a zero
// target, otherwise the target's matches. Each match is framed from the bot's
// own account when it played, else from the target. Out-of-range pages are clamped.
func (b *Bot) historyEmbed(ctx context.Context, viewer session.Session, target models.UserID, page int) (*discordgo.MessageEmbed, error) {
	var (
		records  []models.MatchRecord
		persp    matchview.Perspective
		pageSize = b.config.HistoryPageSize
		title    = "Match History"
		err      error
	)
	if viewer.Authenticated() {
		persp.Viewer = matchview.Subject{ID: viewer.ViewerID, Username: viewer.ViewerUsername}
	}

	if target == 0 {
		records, err = b.api.GetFullMatchHistory(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		// /users/{id}/matches omits id lists, so the username is needed to frame it
		user, err := b.api.GetUser(ctx, target)
		if err != nil {
			return nil, err
		}
		records, err = b.api.GetUserMatches(ctx, target)
		if err != nil {
			return nil, err
		}
		persp.Subject = matchview.Subject{ID: user.ID, Username: user.Username}
		pageSize = b.config.ProfilePageSize
		title = fmt.Sprintf("Match History: %s", user.Username)
	}

	paginator, err := matchview.NewPaginator(pageSize, len(records))
	if err != nil {
		return nil, err
	}
	paginator.GoTo(page)

	projected, err := b.projector.Project(records, persp, paginator.PageSize(), paginator.Current())
	if err != nil {
		return nil, err
	}
	return render.HistoryEmbed(title, projected, paginator.Window(pageWindowRadius)), nil
}

// handleProfile handles the /profile command
func (b *Bot) handleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := models.UserID(optionMap(i)["user_id"].IntValue())

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	user, err := b.api.GetUser(ctx, userID)
	if err != nil {
		slog.Error("Failed to get profile", "userID", userID, "error", err)
		respondWithMessage(s, i, describeError(err))
		return
	}
	respondWithEmbed(s, i, render.ProfileEmbed(user))
}

// handleRanking handles the /ranking command
func (b *Bot) handleRanking(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	rankings, err := b.api.GetRankings(ctx)
	if err != nil {
		slog.Error("Failed to get rankings", "error", err)
		respondWithMessage(s, i, describeError(err))
		return
	}
	respondWithEmbed(s, i, render.RankingEmbed(rankings, rankingLimit))
}

// handleWhoami handles the /whoami command
func (b *Bot) handleWhoami(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondWithMessage(s, i, whoamiMessage(b.sessions.Current()))
}

func whoamiMessage(current session.Session) string {
	switch current.State {
	case session.StateAuthenticated:
		return fmt.Sprintf("Logged in to the rating service as `%s` (ID %s).", current.ViewerUsername, current.ViewerID)
	case session.StateUnknown:
		return "Still restoring the rating service session."
	default:
		return "Not logged in to the rating service."
	}
}

// describeError turns an API failure into a user-facing message
func describeError(err error) string {
	var (
		expired *api.SessionExpiredError
		netErr  *api.NetworkError
	)
	switch {
	case errors.As(err, &expired):
		return "The bot's rating service session has expired. Ask an operator to log it in again."
	case errors.Is(err, api.ErrNotFound):
		return "Player not found. Please check the ID and try again."
	case errors.As(err, &netErr):
		return "The rating service is unreachable right now. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

// Helper functions

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func respondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}

func (b *Bot) editEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}
