package storage

import (
	"database/sql"
	"time"
)

// TrackedPlayer is a rating-service player whose new matches are announced
type TrackedPlayer struct {
	ID          int64
	UserID      int64 // rating service user id
	Username    string
	// Highest match id seen. NULL until the player has been observed once;
	// 0 means observed with no matches.
	LastMatchID sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GuildSettings stores per-server configuration
type GuildSettings struct {
	GuildID               string
	NotificationChannelID string
	CreatedAt             time.Time
}

// Subscription links a tracked player to a Discord guild
type Subscription struct {
	ID           int64
	PlayerID     int64
	GuildID      string
	RegisteredBy string // Discord user ID
	CreatedAt    time.Time
}
