package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithMinInterval(0), WithRetryDelay(time.Millisecond))
}

func TestLoginReturnsToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.Username)
		assert.Equal(t, "secret", body.Password)

		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}))

	token, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestLoginUnauthorizedIsAuthenticationError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid username or password"}`))
	}))

	_, err := c.Login(context.Background(), "alice", "wrong")
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid username or password", authErr.Message)
}

func TestProtectedUnauthorizedIsSessionExpired(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.UpdateUser(context.Background(), 5, models.UserUpdate{Username: "x"})
	var expired *SessionExpiredError
	require.True(t, errors.As(err, &expired))
	assert.Equal(t, "/users/5/edit", expired.Path)
}

func TestEveryRequestCarriesCredential(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`[]`))
	}))
	c.SetTokenSource(staticToken("tok-abc"))

	ctx := context.Background()
	_, err := c.GetRankings(ctx)
	require.NoError(t, err)
	_, err = c.GetUserMatches(ctx, 3)
	require.NoError(t, err)
	_, err = c.GetFullMatchHistory(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	for _, h := range seen {
		assert.Equal(t, "Bearer tok-abc", h)
	}
}

func TestContextCredentialOverridesSource(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"9","username":"zoe"}`))
	}))
	c.SetTokenSource(staticToken("stale"))

	ident, err := c.Self(WithCredential(context.Background(), "fresh"))
	require.NoError(t, err)
	assert.Equal(t, models.UserID(9), ident.ID)
	assert.Equal(t, "zoe", ident.Username)
}

func TestNoCredentialNoHeader(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))

	_, err := c.GetRecentMatches(context.Background())
	require.NoError(t, err)
}

func TestUserMatchesNotFoundIsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Matches not found for this user"}`))
	}))

	matches, err := c.GetUserMatches(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGetUserNotFoundIsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetUser(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithMinInterval(0))
	_, err := c.Self(context.Background())
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestRetriesOnceAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.Username)
		w.Write([]byte(`{"access_token":"tok"}`))
	}))

	token, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateMatchValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := c.CreateMatch(context.Background(), models.MatchCreate{
		Winners:     []models.UserID{1, 1},
		Losers:      []models.UserID{3, 4},
		WinnerScore: 21,
		LoserScore:  10,
		DatePlayed:  models.NewDate(2024, time.June, 2),
	})
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Zero(t, calls.Load())
}

func TestCreateMatchPostsPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches/create", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-06-02", body["date_played"])
		w.Write([]byte(`{"id":77,"creator_id":1,"winners":[1,2],"losers":[3,4],"winner_score":21,"loser_score":10}`))
	}))

	match, err := c.CreateMatch(context.Background(), models.MatchCreate{
		Winners:     []models.UserID{1, 2},
		Losers:      []models.UserID{3, 4},
		WinnerScore: 21,
		LoserScore:  10,
		DatePlayed:  models.NewDate(2024, time.June, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), match.ID)
	assert.True(t, match.HasSideIDs())
}

func TestThrottleHonoursCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, WithMinInterval(time.Hour))

	_, err := c.GetRankings(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = c.GetRankings(ctx)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryAfterRateLimitIsThrottled(t *testing.T) {
	const interval = 100 * time.Millisecond
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		first := len(times) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, WithMinInterval(interval), WithRetryDelay(0))

	_, err := c.GetRankings(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 2)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), interval-10*time.Millisecond)
}
