package models

// Identity is the /auth/self response
type Identity struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// User is a player profile
type User struct {
	ID            UserID  `json:"id"`
	Username      string  `json:"username"`
	Rating        float64 `json:"rating"`
	MatchesWon    []int64 `json:"matches_won"`
	MatchesLost   []int64 `json:"matches_lost"`
	WinPercentage float64 `json:"win_percentage"`
	Bio           *string `json:"bio,omitempty"`
	Picture       *string `json:"picture,omitempty"`
}

// Ranking is one row of the leaderboard
type Ranking struct {
	ID       UserID  `json:"id"`
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
}

// Registration is the /auth/register payload
type Registration struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Bio      *string `json:"bio,omitempty"`
	Picture  *string `json:"picture,omitempty"`
}

// UserUpdate is the /users/{id}/edit payload; empty fields are left unchanged
type UserUpdate struct {
	Username string  `json:"username,omitempty"`
	Password string  `json:"password,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Picture  *string `json:"picture,omitempty"`
}
