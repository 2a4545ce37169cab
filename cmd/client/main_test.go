package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShinAdam/Badminton-Elo-App/internal/api"
	"github.com/ShinAdam/Badminton-Elo-App/internal/config"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/ShinAdam/Badminton-Elo-App/internal/storage"
)

const liveToken = "tok-live"

func newRatingServer(t *testing.T) *httptest.Server {
	t.Helper()
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+liveToken
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": liveToken, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /auth/self", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"7","username":"carol"}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /statistics/full_match_history", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "winners": [1, 2], "losers": [7, 8], "winner_usernames": "alice, bob", "loser_usernames": "carol, dave",
			 "winner_score": 21, "loser_score": 16, "winner_avg_rating": 1510, "loser_avg_rating": 1490,
			 "elo_change_winner": 11, "elo_change_loser": -11, "date_played": "2024-03-02"},
			{"id": 2, "winners": [7, 8], "losers": [1, 2], "winner_usernames": "carol, dave", "loser_usernames": "alice, bob",
			 "winner_score": 21, "loser_score": 19, "winner_avg_rating": 1479, "loser_avg_rating": 1521,
			 "elo_change_winner": 14, "elo_change_loser": -14, "date_played": "2024-03-09"}
		]`))
	})
	mux.HandleFunc("GET /users/ranking", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id": 1, "username": "alice", "rating": 1510.4}]`))
	})
	mux.HandleFunc("POST /matches/create", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var create models.MatchCreate
		json.NewDecoder(r.Body).Decode(&create)
		json.NewEncoder(w).Encode(models.MatchRecord{
			ID: 3, WinnerIDs: create.Winners, LoserIDs: create.Losers,
			WinnerUsernames: "carol, dave", LoserUsernames: "alice, bob",
			WinnerScore: create.WinnerScore, LoserScore: create.LoserScore,
			DatePlayed: create.DatePlayed,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, url, dbPath string) (*app, *bytes.Buffer) {
	t.Helper()
	repo, err := storage.NewRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		APIBaseURL:         url,
		HTTPTimeoutSeconds: 5,
		HistoryPageSize:    20,
		ProfilePageSize:    10,
	}
	var out bytes.Buffer
	return newApp(cfg, repo, &out), &out
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	srv := newRatingServer(t)
	dbPath := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	first, out := newTestApp(t, srv.URL, dbPath)
	require.NoError(t, first.run(ctx, options{cmd: "login", username: "carol", password: "secret"}))
	assert.Equal(t, "Logged in as carol (#7).\n", out.String())

	second, out := newTestApp(t, srv.URL, dbPath)
	require.NoError(t, second.run(ctx, options{cmd: "whoami"}))
	assert.Equal(t, "carol (#7)\n", out.String())

	out.Reset()
	require.NoError(t, second.run(ctx, options{cmd: "ranking"}))
	assert.Contains(t, out.String(), "alice")

	require.NoError(t, second.run(ctx, options{cmd: "logout"}))

	third, out := newTestApp(t, srv.URL, dbPath)
	require.NoError(t, third.run(ctx, options{cmd: "whoami"}))
	assert.Equal(t, "Not logged in.\n", out.String())
}

func TestLoginWithWrongPassword(t *testing.T) {
	srv := newRatingServer(t)
	a, _ := newTestApp(t, srv.URL, filepath.Join(t.TempDir(), "client.db"))

	err := a.run(context.Background(), options{cmd: "login", username: "carol", password: "guess"})
	require.Error(t, err)
	assert.Equal(t, "invalid username or password", describe(err))
}

func TestHistoryFramedFromViewer(t *testing.T) {
	srv := newRatingServer(t)
	a, out := newTestApp(t, srv.URL, filepath.Join(t.TempDir(), "client.db"))
	ctx := context.Background()

	require.NoError(t, a.run(ctx, options{cmd: "login", username: "carol", password: "secret"}))
	out.Reset()

	require.NoError(t, a.run(ctx, options{cmd: "history", page: 9}))
	text := out.String()
	assert.Contains(t, text, "3/9/2024")
	assert.Contains(t, text, "+14")
	assert.Contains(t, text, "16 - 21")
	assert.Contains(t, text, "Page 1 of 1 (2 matches)")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("3/9/2024")), bytes.Index(out.Bytes(), []byte("3/2/2024")))
}

func TestCreateMatchRequiresLogin(t *testing.T) {
	srv := newRatingServer(t)
	a, out := newTestApp(t, srv.URL, filepath.Join(t.TempDir(), "client.db"))
	ctx := context.Background()

	err := a.run(ctx, options{cmd: "create-match", winners: "7,8", losers: "1,2", winnerScore: 21, loserScore: 12})
	assert.ErrorIs(t, err, errNotLoggedIn)

	require.NoError(t, a.run(ctx, options{cmd: "login", username: "carol", password: "secret"}))
	out.Reset()
	require.NoError(t, a.run(ctx, options{
		cmd: "create-match", winners: "7,8", losers: "1,2", winnerScore: 21, loserScore: 12, date: "2024-04-01",
	}))
	assert.Contains(t, out.String(), "Match recorded.")
	assert.Contains(t, out.String(), "Result")
	assert.Contains(t, out.String(), "21 - 12")
}

func TestCreateMatchValidatesLocally(t *testing.T) {
	srv := newRatingServer(t)
	a, _ := newTestApp(t, srv.URL, filepath.Join(t.TempDir(), "client.db"))
	ctx := context.Background()
	require.NoError(t, a.run(ctx, options{cmd: "login", username: "carol", password: "secret"}))

	err := a.run(ctx, options{cmd: "create-match", winners: "7,7", losers: "1,2", winnerScore: 21, loserScore: 12})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDescribeSessionExpired(t *testing.T) {
	assert.Contains(t, describe(&api.SessionExpiredError{Path: "/users/ranking"}), "run -cmd login again")
}

func TestParseUserIDs(t *testing.T) {
	ids, err := parseUserIDs(" 3, 7 ")
	require.NoError(t, err)
	assert.Equal(t, []models.UserID{3, 7}, ids)

	_, err = parseUserIDs("3,x")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	srv := newRatingServer(t)
	a, _ := newTestApp(t, srv.URL, filepath.Join(t.TempDir(), "client.db"))
	assert.Error(t, a.run(context.Background(), options{cmd: "dance"}))
}
