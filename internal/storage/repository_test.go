package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nested", "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCredentialRoundTrip(t *testing.T) {
	store := NewCredentialStore(newTestRepo(t))

	token, err := store.LoadCredential()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SaveCredential("tok-1"))
	require.NoError(t, store.SaveCredential("tok-2"))
	token, err = store.LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, store.ClearCredential())
	token, err = store.LoadCredential()
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clearing an empty store is fine
	assert.NoError(t, store.ClearCredential())
}

func TestCredentialSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, NewCredentialStore(repo).SaveCredential("persisted"))
	require.NoError(t, repo.Close())

	repo, err = NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	token, err := NewCredentialStore(repo).LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
}

func TestTrackedPlayersAndSubscriptions(t *testing.T) {
	repo := newTestRepo(t)

	p := &TrackedPlayer{UserID: 5, Username: "alice"}
	require.NoError(t, repo.CreateTrackedPlayer(p))
	assert.NotZero(t, p.ID)
	assert.ErrorIs(t, repo.CreateTrackedPlayer(&TrackedPlayer{UserID: 5, Username: "dup"}), ErrAlreadyExists)

	got, err := repo.GetTrackedPlayerByUserID(5)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.LastMatchID.Valid)

	_, err = repo.GetTrackedPlayerByUserID(99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.UpdateLastMatch(p.ID, 42))
	all, err := repo.GetAllTrackedPlayers()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, sql.NullInt64{Int64: 42, Valid: true}, all[0].LastMatchID)

	sub := &Subscription{PlayerID: p.ID, GuildID: "g1", RegisteredBy: "u1"}
	require.NoError(t, repo.CreateSubscription(sub))
	assert.ErrorIs(t, repo.CreateSubscription(&Subscription{PlayerID: p.ID, GuildID: "g1", RegisteredBy: "u2"}), ErrAlreadyExists)

	inGuild, err := repo.GetTrackedPlayersByGuild("g1")
	require.NoError(t, err)
	require.Len(t, inGuild, 1)

	subs, err := repo.GetSubscriptionsByPlayer(p.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "g1", subs[0].GuildID)

	deleted, err := repo.DeleteSubscription(p.ID, "g1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteSubscription(p.ID, "g1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGuildSettingsUpsert(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetGuildSettings("g1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.UpsertGuildSettings(&GuildSettings{GuildID: "g1", NotificationChannelID: "c1"}))
	require.NoError(t, repo.UpsertGuildSettings(&GuildSettings{GuildID: "g1", NotificationChannelID: "c2"}))

	settings, err := repo.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, "c2", settings.NotificationChannelID)
}

func TestTrackedPlayerObservedWithoutMatches(t *testing.T) {
	repo := newTestRepo(t)

	p := &TrackedPlayer{UserID: 8, Username: "erin", LastMatchID: sql.NullInt64{Valid: true}}
	require.NoError(t, repo.CreateTrackedPlayer(p))

	got, err := repo.GetTrackedPlayerByUserID(8)
	require.NoError(t, err)
	assert.True(t, got.LastMatchID.Valid)
	assert.Zero(t, got.LastMatchID.Int64)
}
