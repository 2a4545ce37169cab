package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// GetUser retrieves a player profile
func (c *Client) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+id.String(), nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// UpdateUser edits the profile of the logged-in player
func (c *Client) UpdateUser(ctx context.Context, id models.UserID, update models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/users/"+id.String()+"/edit", update, &user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return &user, nil
}

// GetRankings returns players ordered by rating. No players is an empty list.
func (c *Client) GetRankings(ctx context.Context) ([]models.Ranking, error) {
	var rankings []models.Ranking
	if err := ignoreNotFound(c.do(ctx, http.MethodGet, "/users/ranking", nil, &rankings)); err != nil {
		return nil, fmt.Errorf("failed to get rankings: %w", err)
	}
	return rankings, nil
}

// GetUserMatches returns every match the player took part in, in server order.
// The service answers 404 for a player without matches; that is an empty list here.
func (c *Client) GetUserMatches(ctx context.Context, id models.UserID) ([]models.MatchRecord, error) {
	var matches []models.MatchRecord
	if err := ignoreNotFound(c.do(ctx, http.MethodGet, "/users/"+id.String()+"/matches", nil, &matches)); err != nil {
		return nil, fmt.Errorf("failed to get matches for user %s: %w", id, err)
	}
	return matches, nil
}
