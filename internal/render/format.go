// Package render draws projected match pages, rankings and profiles as
// terminal tables and Discord embeds.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
)

// EloChange formats a rating delta; the winning side always carries a sign
func EloChange(change float64, won bool) string {
	s := strconv.FormatFloat(math.Round(change*10)/10, 'f', -1, 64)
	if won && change >= 0 {
		return "+" + s
	}
	return s
}

// Rating rounds a rating to a whole number
func Rating(r float64) string {
	return strconv.FormatFloat(math.Round(r), 'f', 0, 64)
}

// Names joins a side's usernames, "-" when unknown
func Names(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// Result is W or L for an anchored view and blank otherwise
func Result(v matchview.MatchView) string {
	switch {
	case v.Anchor == matchview.AnchorNone:
		return ""
	case v.ViewerIsWinner:
		return "W"
	default:
		return "L"
	}
}

// Score renders the viewer side's score first
func Score(v matchview.MatchView) string {
	return fmt.Sprintf("%d - %d", v.ViewerScore, v.OpponentScore)
}

func winPercentage(p float64) string {
	return strconv.FormatFloat(math.Round(p*10)/10, 'f', -1, 64) + "%"
}
