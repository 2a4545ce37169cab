package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// GetMatch retrieves a single match
func (c *Client) GetMatch(ctx context.Context, id int64) (*models.MatchRecord, error) {
	var match models.MatchRecord
	if err := c.do(ctx, http.MethodGet, "/matches/"+strconv.FormatInt(id, 10), nil, &match); err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return &match, nil
}

// CreateMatch records a match; the payload is validated before anything is sent
func (c *Client) CreateMatch(ctx context.Context, create models.MatchCreate) (*models.MatchRecord, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	var match models.MatchRecord
	if err := c.do(ctx, http.MethodPost, "/matches/create", create, &match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return &match, nil
}

// GetFullMatchHistory returns every recorded match
func (c *Client) GetFullMatchHistory(ctx context.Context) ([]models.MatchRecord, error) {
	var matches []models.MatchRecord
	if err := ignoreNotFound(c.do(ctx, http.MethodGet, "/statistics/full_match_history", nil, &matches)); err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}
	return matches, nil
}

// GetRecentMatches returns the service's short list of latest matches
func (c *Client) GetRecentMatches(ctx context.Context) ([]models.MatchRecord, error) {
	var matches []models.MatchRecord
	if err := ignoreNotFound(c.do(ctx, http.MethodGet, "/statistics/recent", nil, &matches)); err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}
	return matches, nil
}
