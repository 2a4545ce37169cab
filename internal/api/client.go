package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const loginPath = "/auth/login"

// TokenSource supplies the bearer credential attached to outgoing requests
type TokenSource interface {
	Token() string
}

type credentialKey struct{}

// WithCredential overrides the TokenSource for requests made with ctx.
// Used to verify a freshly issued token before it becomes the session credential.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom returns the override installed by WithCredential, if any
func CredentialFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey{}).(string)
	return token, ok
}

// Client is a rating service API client with rate limiting
type Client struct {
	baseURL    string
	httpClient *http.Client

	tokensMu sync.RWMutex
	tokens   TokenSource

	// Simple rate limiter
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
	retryDelay  time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMinInterval sets the minimum spacing between requests
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithRetryDelay sets the wait before retrying a 429 response
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a new rating API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// ~20 requests per second
		minInterval: 50 * time.Millisecond,
		retryDelay:  1 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource installs the source consulted for the Authorization header
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokensMu.Lock()
	defer c.tokensMu.Unlock()
	c.tokens = ts
}

// credential resolves the token for a request: context override first, then the source
func (c *Client) credential(ctx context.Context) string {
	if token, ok := CredentialFrom(ctx); ok {
		return token
	}
	c.tokensMu.RLock()
	defer c.tokensMu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// augment is the single place where outgoing requests get their headers
func (c *Client) augment(req *http.Request) string {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.credential(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return requestID
}

// wait reserves the next request slot and sleeps until it comes up.
// The lock only covers the reservation, so a cancelled caller frees its goroutine at once.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	slot := c.lastRequest.Add(c.minInterval)
	if now := time.Now(); slot.Before(now) {
		slot = now
	}
	c.lastRequest = slot
	c.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doRequest performs an HTTP request with rate limiting
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	requestID := c.augment(req)
	slog.Debug("API request", "method", req.Method, "path", req.URL.Path, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Handle rate limiting (429)
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		slog.Warn("API rate limited, retrying once", "path", req.URL.Path, "requestID", requestID)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}

		retry := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			retry.Body = body
		}
		// The retry is a request like any other and takes its own slot
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.httpClient.Do(retry)
	}

	return resp, nil
}

// do sends body as JSON (when non-nil), checks the status and decodes into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return c.statusError(method, path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy
func (c *Client) statusError(method, path string, status int, body []byte) error {
	detail := errorDetail(body)
	if status == http.StatusUnauthorized {
		if path == loginPath {
			return &AuthenticationError{Message: detail}
		}
		return &SessionExpiredError{Path: path}
	}
	return &StatusError{Method: method, Path: path, StatusCode: status, Detail: detail}
}

// errorDetail extracts FastAPI-style {"detail": "..."} bodies, falling back to raw text
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}

// ignoreNotFound turns a 404 into a nil error; used for list endpoints where
// the service answers 404 for "nothing yet"
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
