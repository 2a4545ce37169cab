package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ShinAdam/Badminton-Elo-App/internal/matchview"
	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

const (
	colorWin     = 0x2ECC71
	colorLoss    = 0xE74C3C
	colorNeutral = 0x3498DB

	// Discord rejects embeds with more than 25 fields
	maxEmbedFields = 25
)

// MatchEmbed announces a single match framed around playerName
func MatchEmbed(playerName string, v matchview.MatchView) *discordgo.MessageEmbed {
	color := colorNeutral
	title := "Match recorded"
	switch Result(v) {
	case "W":
		color = colorWin
		title = "Victory"
	case "L":
		color = colorLoss
		title = "Defeat"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Author: &discordgo.MessageEmbedAuthor{
			Name: playerName,
		},
		Description: fmt.Sprintf("**%s** vs **%s**", Names(v.ViewerSideUsernames), Names(v.OpponentSideUsernames)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Score",
				Value:  Score(v),
				Inline: true,
			},
			{
				Name:   "ELO",
				Value:  EloChange(v.ViewerEloChange, v.FirstSideWon()),
				Inline: true,
			},
			{
				Name:   "Avg rating",
				Value:  fmt.Sprintf("%s vs %s", Rating(v.ViewerAvgRating), Rating(v.OpponentAvgRating)),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Match ID: %d", v.Match.ID),
		},
	}
	if !v.Match.DatePlayed.IsZero() {
		embed.Timestamp = v.Match.DatePlayed.Format(time.RFC3339)
	}
	return embed
}

// HistoryEmbed lists one page of matches; window holds the page numbers to
// offer as navigation hints
func HistoryEmbed(title string, page matchview.Page, window []int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: colorNeutral,
	}
	if page.TotalItems == 0 {
		embed.Description = "No matches recorded yet."
		return embed
	}

	for _, v := range page.Items {
		if len(embed.Fields) == maxEmbedFields {
			break
		}
		name := v.FormattedDate
		if r := Result(v); r != "" {
			name = r + " · " + name
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: name,
			Value: fmt.Sprintf("%s **%s** %s (%s)",
				Names(v.ViewerSideUsernames), Score(v), Names(v.OpponentSideUsernames),
				EloChange(v.ViewerEloChange, v.FirstSideWon())),
		})
	}

	pages := make([]string, 0, len(window))
	for _, n := range window {
		if n == page.PageNumber {
			pages = append(pages, fmt.Sprintf("[%d]", n))
		} else {
			pages = append(pages, fmt.Sprintf("%d", n))
		}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d of %d · %d matches · %s", page.PageNumber, page.TotalPages, page.TotalItems, strings.Join(pages, " ")),
	}
	return embed
}

// RankingEmbed shows the top of the leaderboard
func RankingEmbed(rankings []models.Ranking, limit int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Leaderboard",
		Color: colorNeutral,
	}
	if len(rankings) == 0 {
		embed.Description = "No ranked players."
		return embed
	}
	if limit > 0 && len(rankings) > limit {
		rankings = rankings[:limit]
	}

	var sb strings.Builder
	for i, r := range rankings {
		sb.WriteString(fmt.Sprintf("%d. **%s** · %s\n", i+1, r.Username, Rating(r.Rating)))
	}
	embed.Description = sb.String()
	return embed
}

// ProfileEmbed summarizes a player
func ProfileEmbed(u *models.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: u.Username,
		Color: colorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rating", Value: Rating(u.Rating), Inline: true},
			{Name: "Record", Value: fmt.Sprintf("%d W / %d L", len(u.MatchesWon), len(u.MatchesLost)), Inline: true},
			{Name: "Win rate", Value: winPercentage(u.WinPercentage), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Player ID: %s", u.ID),
		},
	}
	if u.Bio != nil {
		embed.Description = *u.Bio
	}
	return embed
}
