package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert violates a unique constraint
var ErrAlreadyExists = errors.New("already exists")

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps SQLite writes serialized
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS client_storage (
			key VARCHAR(64) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tracked_players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER UNIQUE NOT NULL,
			username VARCHAR(100) NOT NULL,
			last_match_id INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id VARCHAR(20) PRIMARY KEY,
			notification_channel_id VARCHAR(20),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS player_subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id INTEGER NOT NULL,
			guild_id VARCHAR(20) NOT NULL,
			registered_by VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES tracked_players(id) ON DELETE CASCADE,
			UNIQUE(player_id, guild_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_guild ON player_subscriptions(guild_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Tracked player operations

// CreateTrackedPlayer inserts a new tracked player
func (r *Repository) CreateTrackedPlayer(p *TrackedPlayer) error {
	result, err := r.db.Exec(
		`INSERT INTO tracked_players (user_id, username, last_match_id) VALUES (?, ?, ?)`,
		p.UserID, p.Username, p.LastMatchID,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetTrackedPlayerByUserID finds a tracked player by rating service user id
func (r *Repository) GetTrackedPlayerByUserID(userID int64) (*TrackedPlayer, error) {
	p := &TrackedPlayer{}
	err := r.db.QueryRow(
		`SELECT id, user_id, username, last_match_id, created_at, updated_at FROM tracked_players WHERE user_id = ?`,
		userID,
	).Scan(&p.ID, &p.UserID, &p.Username, &p.LastMatchID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// UpdateLastMatch records the newest match seen for a player
func (r *Repository) UpdateLastMatch(playerID, matchID int64) error {
	_, err := r.db.Exec(
		`UPDATE tracked_players SET last_match_id = ?, updated_at = ? WHERE id = ?`,
		matchID, time.Now(), playerID,
	)
	return err
}

// GetAllTrackedPlayers returns every tracked player
func (r *Repository) GetAllTrackedPlayers() ([]*TrackedPlayer, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, username, last_match_id, created_at, updated_at FROM tracked_players ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

// GetTrackedPlayersByGuild returns all players subscribed in a guild
func (r *Repository) GetTrackedPlayersByGuild(guildID string) ([]*TrackedPlayer, error) {
	rows, err := r.db.Query(
		`SELECT p.id, p.user_id, p.username, p.last_match_id, p.created_at, p.updated_at
		 FROM tracked_players p
		 JOIN player_subscriptions sub ON p.id = sub.player_id
		 WHERE sub.guild_id = ?
		 ORDER BY p.username`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

func scanPlayers(rows *sql.Rows) ([]*TrackedPlayer, error) {
	var players []*TrackedPlayer
	for rows.Next() {
		p := &TrackedPlayer{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.LastMatchID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Subscription operations

// CreateSubscription creates a new subscription
func (r *Repository) CreateSubscription(sub *Subscription) error {
	result, err := r.db.Exec(
		`INSERT INTO player_subscriptions (player_id, guild_id, registered_by) VALUES (?, ?, ?)`,
		sub.PlayerID, sub.GuildID, sub.RegisteredBy,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = id
	return nil
}

// DeleteSubscription removes a subscription and reports whether one existed
func (r *Repository) DeleteSubscription(playerID int64, guildID string) (bool, error) {
	result, err := r.db.Exec(
		`DELETE FROM player_subscriptions WHERE player_id = ? AND guild_id = ?`,
		playerID, guildID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetSubscriptionsByPlayer returns all guild subscriptions for a player
func (r *Repository) GetSubscriptionsByPlayer(playerID int64) ([]*Subscription, error) {
	rows, err := r.db.Query(
		`SELECT id, player_id, guild_id, registered_by, created_at FROM player_subscriptions WHERE player_id = ?`,
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub := &Subscription{}
		if err := rows.Scan(&sub.ID, &sub.PlayerID, &sub.GuildID, &sub.RegisteredBy, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// Guild settings operations

// UpsertGuildSettings creates or updates guild settings
func (r *Repository) UpsertGuildSettings(settings *GuildSettings) error {
	_, err := r.db.Exec(
		`INSERT INTO guild_settings (guild_id, notification_channel_id) VALUES (?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET notification_channel_id = excluded.notification_channel_id`,
		settings.GuildID, settings.NotificationChannelID,
	)
	return err
}

// GetGuildSettings retrieves guild settings
func (r *Repository) GetGuildSettings(guildID string) (*GuildSettings, error) {
	settings := &GuildSettings{}
	err := r.db.QueryRow(
		`SELECT guild_id, notification_channel_id, created_at FROM guild_settings WHERE guild_id = ?`,
		guildID,
	).Scan(&settings.GuildID, &settings.NotificationChannelID, &settings.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return settings, nil
}
