package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// HistoryTable writes one page of match history
func HistoryTable(w io.Writer, page matchview.Page) error {
	if page.TotalItems == 0 {
		_, err := fmt.Fprintln(w, "No matches recorded yet.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tRESULT\tTEAM\tSCORE\tOPPONENTS\tELO\tAVG\tOPP AVG\tID")
	for _, v := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			v.FormattedDate,
			Result(v),
			Names(v.ViewerSideUsernames),
			Score(v),
			Names(v.OpponentSideUsernames),
			EloChange(v.ViewerEloChange, v.FirstSideWon()),
			Rating(v.ViewerAvgRating),
			Rating(v.OpponentAvgRating),
			v.Match.ID,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d matches)\n", page.PageNumber, page.TotalPages, page.TotalItems)
	return err
}

// MatchDetail writes a single match
func MatchDetail(w io.Writer, v matchview.MatchView) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Match\t#%d\n", v.Match.ID)
	fmt.Fprintf(tw, "Date\t%s\n", v.FormattedDate)
	if r := Result(v); r != "" {
		fmt.Fprintf(tw, "Result\t%s\n", r)
	}
	fmt.Fprintf(tw, "Team\t%s (avg %s, %s)\n",
		Names(v.ViewerSideUsernames), Rating(v.ViewerAvgRating), EloChange(v.ViewerEloChange, v.FirstSideWon()))
	fmt.Fprintf(tw, "Opponents\t%s (avg %s, %s)\n",
		Names(v.OpponentSideUsernames), Rating(v.OpponentAvgRating), EloChange(v.OpponentEloChange, !v.FirstSideWon()))
	fmt.Fprintf(tw, "Score\t%s\n", Score(v))
	return tw.Flush()
}

// RankingTable writes the leaderboard in the order given
func RankingTable(w io.Writer, rankings []models.Ranking) error {
	if len(rankings) == 0 {
		_, err := fmt.Fprintln(w, "No ranked players.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "#\tPLAYER\tRATING\tID")
	for i, r := range rankings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Username, Rating(r.Rating), r.ID)
	}
	return tw.Flush()
}

// Profile writes a player's summary
func Profile(w io.Writer, u *models.User) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Player\t%s (#%s)\n", u.Username, u.ID)
	fmt.Fprintf(tw, "Rating\t%s\n", Rating(u.Rating))
	fmt.Fprintf(tw, "Record\t%d W / %d L (%s)\n", len(u.MatchesWon), len(u.MatchesLost), winPercentage(u.WinPercentage))
	if u.Bio != nil && *u.Bio != "" {
		fmt.Fprintf(tw, "Bio\t%s\n", *u.Bio)
	}
	return tw.Flush()
}
