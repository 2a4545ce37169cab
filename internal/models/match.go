package models

// MatchRecord is a doubles match as returned by the rating service.
// It is read-only input to the client.
type MatchRecord struct {
	ID        int64    `json:"id"`
	CreatorID UserID   `json:"creator_id"`
	WinnerIDs []UserID `json:"winners,omitempty"` // absent on /users/{id}/matches
	LoserIDs  []UserID `json:"losers,omitempty"`

	// Comma-delimited display names, e.g. "alice, bob"
	WinnerUsernames string `json:"winner_usernames"`
	LoserUsernames  string `json:"loser_usernames"`

	WinnerScore int `json:"winner_score"`
	LoserScore  int `json:"loser_score"`

	WinnerAvgRating float64 `json:"winner_avg_rating"`
	LoserAvgRating  float64 `json:"loser_avg_rating"`
	EloChangeWinner float64 `json:"elo_change_winner"`
	EloChangeLoser  float64 `json:"elo_change_loser"`

	DatePlayed Date `json:"date_played"`
}

// HasSideIDs reports whether both id lists are present and well formed
func (m MatchRecord) HasSideIDs() bool {
	return validSides(m.WinnerIDs, m.LoserIDs) == nil
}

// Validate checks the participant shape: two unique players per side and no
// player on both sides. Records without id lists are accepted.
func (m MatchRecord) Validate() error {
	if len(m.WinnerIDs) == 0 && len(m.LoserIDs) == 0 {
		return nil
	}
	return validSides(m.WinnerIDs, m.LoserIDs)
}

// MatchCreate is the payload for recording a new match
type MatchCreate struct {
	Winners     []UserID `json:"winners"`
	Losers      []UserID `json:"losers"`
	WinnerScore int      `json:"winner_score"`
	LoserScore  int      `json:"loser_score"`
	DatePlayed  Date     `json:"date_played"`
}

// Validate rejects payloads the server would reject or misrecord
func (c MatchCreate) Validate() error {
	if err := validSides(c.Winners, c.Losers); err != nil {
		return err
	}
	if c.WinnerScore < 0 || c.LoserScore < 0 {
		return &ValidationError{Field: "score", Reason: "scores must not be negative"}
	}
	if c.WinnerScore <= c.LoserScore {
		return &ValidationError{Field: "score", Reason: "winner score must be greater than loser score"}
	}
	if c.DatePlayed.IsZero() {
		return &ValidationError{Field: "date_played", Reason: "date is required"}
	}
	return nil
}

func validSides(winners, losers []UserID) error {
	seen := make(map[UserID]bool, 4)
	check := func(field string, ids []UserID) error {
		if len(ids) != 2 {
			return &ValidationError{Field: field, Reason: "exactly 2 players required"}
		}
		for _, id := range ids {
			if id <= 0 {
				return &ValidationError{Field: field, Reason: "invalid player id"}
			}
			if seen[id] {
				return &ValidationError{Field: field, Reason: "player " + id.String() + " appears more than once"}
			}
			seen[id] = true
		}
		return nil
	}
	if err := check("winners", winners); err != nil {
		return err
	}
	return check("losers", losers)
}
