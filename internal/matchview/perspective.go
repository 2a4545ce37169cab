package matchview

import (
	"slices"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// Subject is a player a match can be framed around. The zero value means absent.
type Subject struct {
	ID       models.UserID
	Username string
}

// IsZero reports whether no player is set
func (s Subject) IsZero() bool {
	return s.ID == 0 && s.Username == ""
}

// Perspective says whose point of view a page is rendered from.
// Viewer is the logged-in player (zero when logged out); Subject is the
// page's declared owner, e.g. the profile being viewed (zero on global pages).
type Perspective struct {
	Viewer  Subject
	Subject Subject
}

// Anchor records which player a MatchView was framed around
type Anchor int

const (
	// AnchorNone keeps the server's winner/loser order
	AnchorNone Anchor = iota
	AnchorViewer
	AnchorSubject
)

func (a Anchor) String() string {
	switch a {
	case AnchorViewer:
		return "viewer"
	case AnchorSubject:
		return "subject"
	default:
		return "none"
	}
}

// sideOf reports whether s played in m and, if so, whether on the winning side.
// Ids decide when both sides are available; otherwise usernames do.
func (s Subject) sideOf(m models.MatchRecord, winners, losers []string) (won, played bool) {
	if s.IsZero() {
		return false, false
	}
	if s.ID != 0 && m.HasSideIDs() {
		if slices.Contains(m.WinnerIDs, s.ID) {
			return true, true
		}
		return false, slices.Contains(m.LoserIDs, s.ID)
	}
	if s.Username == "" {
		return false, false
	}
	if slices.Contains(winners, s.Username) {
		return true, true
	}
	return false, slices.Contains(losers, s.Username)
}

// resolve picks the anchor for one match: the viewer if they played, else the
// subject if they played, else none
func (p Perspective) resolve(m models.MatchRecord, winners, losers []string) (Anchor, bool) {
	if won, played := p.Viewer.sideOf(m, winners, losers); played {
		return AnchorViewer, won
	}
	if won, played := p.Subject.sideOf(m, winners, losers); played {
		return AnchorSubject, won
	}
	return AnchorNone, false
}
