package matchview

import (
	"cmp"
	"slices"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// compareNewestFirst orders by date played descending, then id descending
func compareNewestFirst(a, b models.MatchRecord) int {
	if c := b.DatePlayed.Compare(a.DatePlayed.Time); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// SortMatches returns a newest-first copy of records. The input order is
// never trusted and the input slice is never modified.
func SortMatches(records []models.MatchRecord) []models.MatchRecord {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, compareNewestFirst)
	return sorted
}
