// Package matchview turns raw match records into ordered, paginated pages
// framed from a player's point of view. Everything here is pure.
package matchview

import (
	"errors"
	"fmt"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// DefaultDateLayout renders dates like 1/5/2024
const DefaultDateLayout = "1/2/2006"

// ErrInvalidArgument reports structurally impossible projector input
var ErrInvalidArgument = errors.New("invalid argument")

// MatchView is one match framed around its anchor. The "viewer side" fields
// describe the anchored player's side; with AnchorNone they hold the winners
// and the "opponent side" fields hold the losers.
type MatchView struct {
	Match  models.MatchRecord
	Anchor Anchor

	// ViewerIsWinner is true when the anchored player won; always false for AnchorNone
	ViewerIsWinner bool

	ViewerSideUsernames   []string
	OpponentSideUsernames []string

	ViewerScore       int
	OpponentScore     int
	ViewerEloChange   float64
	ViewerAvgRating   float64
	OpponentEloChange float64
	OpponentAvgRating float64

	FormattedDate string
}

// FirstSideWon reports whether the viewer-side columns belong to the winners
func (v MatchView) FirstSideWon() bool {
	return v.Anchor == AnchorNone || v.ViewerIsWinner
}

// Page is one slice of projected matches plus pagination metadata
type Page struct {
	PageNumber int
	PageSize   int
	TotalPages int
	TotalItems int
	Items      []MatchView
}

// Projector builds pages of match views
type Projector struct {
	dateLayout string
}

// NewProjector returns a projector formatting dates with layout
// (DefaultDateLayout when empty)
func NewProjector(layout string) *Projector {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return &Projector{dateLayout: layout}
}

// TotalPages is ceil(count / pageSize), 0 for no items
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// Project sorts records newest first, frames each from persp and returns page
// pageNumber (1-based). pageSize must be positive and pageNumber must lie in
// [1, TotalPages]; an empty record set is an empty page 1, not an error.
// Clamping out-of-range pages is the caller's job (see Paginator).
func (p *Projector) Project(records []models.MatchRecord, persp Perspective, pageSize, pageNumber int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}

	total := TotalPages(len(records), pageSize)
	page := Page{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: total,
		TotalItems: len(records),
		Items:      []MatchView{},
	}
	if total == 0 && pageNumber == 1 {
		return page, nil
	}
	if pageNumber < 1 || pageNumber > total {
		return Page{}, fmt.Errorf("%w: page %d outside [1, %d]", ErrInvalidArgument, pageNumber, total)
	}

	sorted := SortMatches(records)
	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, len(sorted))

	page.Items = make([]MatchView, 0, end-start)
	for _, m := range sorted[start:end] {
		page.Items = append(page.Items, p.View(m, persp))
	}
	return page, nil
}

// View frames a single match
func (p *Projector) View(m models.MatchRecord, persp Perspective) MatchView {
	winners := ParseUsernames(m.WinnerUsernames)
	losers := ParseUsernames(m.LoserUsernames)
	anchor, won := persp.resolve(m, winners, losers)

	v := MatchView{
		Match:          m,
		Anchor:         anchor,
		ViewerIsWinner: anchor != AnchorNone && won,
	}
	if !m.DatePlayed.IsZero() {
		v.FormattedDate = m.DatePlayed.Format(p.dateLayout)
	}

	if v.FirstSideWon() {
		v.ViewerSideUsernames, v.OpponentSideUsernames = winners, losers
		v.ViewerScore, v.OpponentScore = m.WinnerScore, m.LoserScore
		v.ViewerEloChange, v.OpponentEloChange = m.EloChangeWinner, m.EloChangeLoser
		v.ViewerAvgRating, v.OpponentAvgRating = m.WinnerAvgRating, m.LoserAvgRating
	} else {
		v.ViewerSideUsernames, v.OpponentSideUsernames = losers, winners
		v.ViewerScore, v.OpponentScore = m.LoserScore, m.WinnerScore
		v.ViewerEloChange, v.OpponentEloChange = m.EloChangeLoser, m.EloChangeWinner
		v.ViewerAvgRating, v.OpponentAvgRating = m.LoserAvgRating, m.WinnerAvgRating
	}
	return v
}
