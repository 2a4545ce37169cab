package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

func sampleMatch() models.MatchRecord {
	return models.MatchRecord{
		ID:              17,
		WinnerIDs:       []models.UserID{5, 6},
		LoserIDs:        []models.UserID{7, 8},
		WinnerUsernames: "alice,bob",
		LoserUsernames:  "carol, dave",
		WinnerScore:     21,
		LoserScore:      18,
		WinnerAvgRating: 1520.6,
		LoserAvgRating:  1490.2,
		EloChangeWinner: 12,
		EloChangeLoser:  -12,
		DatePlayed:      models.NewDate(2024, time.June, 3),
	}
}

func TestEloChange(t *testing.T) {
	assert.Equal(t, "+12", EloChange(12, true))
	assert.Equal(t, "12", EloChange(12, false))
	assert.Equal(t, "-12", EloChange(-12, false))
	assert.Equal(t, "+7.5", EloChange(7.49, true))
}

func TestRating(t *testing.T) {
	assert.Equal(t, "1521", Rating(1520.6))
	assert.Equal(t, "1490", Rating(1490.2))
}

func TestHistoryTableFromViewer(t *testing.T) {
	p := matchview.NewProjector("")
	page, err := p.Project([]models.MatchRecord{sampleMatch()}, matchview.Perspective{
		Viewer: matchview.Subject{ID: 7, Username: "carol"},
	}, 20, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, HistoryTable(&buf, page))
	out := buf.String()

	assert.Contains(t, out, "6/3/2024")
	assert.Contains(t, out, "carol, dave")
	assert.Contains(t, out, "18 - 21")
	assert.Contains(t, out, "-12")
	assert.Contains(t, out, "Page 1 of 1 (1 matches)")
}

func TestHistoryTableEmpty(t *testing.T) {
	page, err := matchview.NewProjector("").Project(nil, matchview.Perspective{}, 20, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, HistoryTable(&buf, page))
	assert.Equal(t, "No matches recorded yet.\n", buf.String())
}

func TestRankingTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RankingTable(&buf, []models.Ranking{
		{ID: 3, Username: "alice", Rating: 1600.4},
		{ID: 9, Username: "bob", Rating: 1550.5},
	}))
	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "1600")
	assert.Contains(t, out, "1551")
}

func TestProfile(t *testing.T) {
	bio := "weekend smasher"
	var buf bytes.Buffer
	require.NoError(t, Profile(&buf, &models.User{
		ID:            4,
		Username:      "dave",
		Rating:        1498.7,
		MatchesWon:    []int64{1, 2, 3},
		MatchesLost:   []int64{4},
		WinPercentage: 75,
		Bio:           &bio,
	}))
	out := buf.String()
	assert.Contains(t, out, "dave (#4)")
	assert.Contains(t, out, "3 W / 1 L (75%)")
	assert.Contains(t, out, bio)
}

func TestMatchEmbedColors(t *testing.T) {
	p := matchview.NewProjector("")
	m := sampleMatch()

	won := MatchEmbed("alice", p.View(m, matchview.Perspective{Subject: matchview.Subject{ID: 5}}))
	assert.Equal(t, colorWin, won.Color)
	assert.Equal(t, "Victory", won.Title)
	assert.Equal(t, "+12", won.Fields[1].Value)

	lost := MatchEmbed("carol", p.View(m, matchview.Perspective{Subject: matchview.Subject{ID: 7}}))
	assert.Equal(t, colorLoss, lost.Color)
	assert.Equal(t, "18 - 21", lost.Fields[0].Value)

	neutral := MatchEmbed("", p.View(m, matchview.Perspective{}))
	assert.Equal(t, colorNeutral, neutral.Color)
	assert.Equal(t, "Match ID: 17", neutral.Footer.Text)
}

func TestHistoryEmbedFooterMarksCurrentPage(t *testing.T) {
	records := make([]models.MatchRecord, 0, 25)
	for i := 1; i <= 25; i++ {
		m := sampleMatch()
		m.ID = int64(i)
		records = append(records, m)
	}
	page, err := matchview.NewProjector("").Project(records, matchview.Perspective{}, 10, 2)
	require.NoError(t, err)

	embed := HistoryEmbed("History", page, []int{1, 2, 3})
	assert.Len(t, embed.Fields, 10)
	assert.Contains(t, embed.Footer.Text, "1 [2] 3")
	assert.Contains(t, embed.Footer.Text, "25 matches")
}

func TestRankingEmbedLimit(t *testing.T) {
	embed := RankingEmbed([]models.Ranking{
		{ID: 1, Username: "a", Rating: 1},
		{ID: 2, Username: "b", Rating: 2},
		{ID: 3, Username: "c", Rating: 3},
	}, 2)
	assert.Contains(t, embed.Description, "**b**")
	assert.NotContains(t, embed.Description, "**c**")
}
