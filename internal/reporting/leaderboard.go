package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/ranking"
)

// VideoGateway serves IPFS videos embedded in leaderboard galleries.
const VideoGateway = "https://gateway.pinata.cloud/ipfs/"

// exercises maps song ids to the exercise performed for them.
var exercises = map[string]string{
	"5":  "Squats ([[Blue Railroad Train]])",
	"6":  "Pushups ([[Nine Pound Hammer]])",
	"7":  "Squats ([[Blue Railroad Train]]) (legacy)",
	"10": "Army Crawls ([[Ginseng Sullivan]])",
}

// ExerciseName returns the exercise for a song id.
func ExerciseName(songID string) string {
	if name, ok := exercises[songID]; ok {
		return name
	}
	return "Exercise ID " + songID
}

// LeaderboardPage is everything a leaderboard page is rendered from.
type LeaderboardPage struct {
	Spec       config.Leaderboard
	Entries    []ranking.Entry
	Stats      ranking.Stats
	Gallery    []*domain.Token // most recent first
	ConfigPage string          // linked from the page header
}

// RenderLeaderboard renders a leaderboard page.
func RenderLeaderboard(p LeaderboardPage) string {
	var sb strings.Builder

	configPage := p.ConfigPage
	if configPage == "" {
		configPage = config.DefaultConfigPage
	}

	sb.WriteString(fmt.Sprintf("'''%s''' tracks ownership of [[Blue Railroad]] NFT tokens.\n", p.Spec.Title))
	if p.Spec.Description != "" {
		sb.WriteString("\n" + p.Spec.Description + "\n")
	}
	if song := p.Spec.Filter.SongID(); song != "" {
		sb.WriteString("\n'''Exercise:''' " + ExerciseName(song) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n''This page is automatically generated. See [[%s|bot configuration]] to modify.''\n", configPage))

	// Statistics
	sb.WriteString("\n== Statistics ==\n")
	sb.WriteString(fmt.Sprintf("* '''Total Tokens:''' %d\n", p.Stats.TotalTokens))
	sb.WriteString(fmt.Sprintf("* '''Total Holders:''' %d\n", p.Stats.Holders))

	// Ranking table
	sb.WriteString("\n== Leaderboard ==\n")
	sb.WriteString("{| class=\"wikitable sortable\"\n")
	sb.WriteString("! Rank !! Holder !! Tokens !! Token IDs\n")
	for _, e := range p.Entries {
		links := make([]string, 0, len(e.Tokens))
		for _, t := range e.Tokens {
			links = append(links, fmt.Sprintf("[[%s|#%d]] (%s)", TokenPageName(t.ID), t.ID, t.Version))
		}
		holder := e.OwnerDisplay
		if holder == "" {
			holder = "''unknown''"
		}
		sb.WriteString("|-\n")
		sb.WriteString(fmt.Sprintf("| %d || %s || %d || %s\n", e.Rank, holder, e.Count, strings.Join(links, ", ")))
	}
	sb.WriteString("|}\n")

	// Gallery
	if len(p.Gallery) > 0 {
		sb.WriteString("\n== Recent Workouts ==\n\n")
		for _, t := range p.Gallery {
			id := strconv.FormatInt(t.ID, 10)
			sb.WriteString("=== [[" + TokenPageName(t.ID) + "|Token #" + id + "]] ===\n")
			sb.WriteString("'''" + t.OwnerDisplay() + "'''\n\n")
			sb.WriteString("{{#ev:videolink|" + VideoGateway + t.IPFSCID() + "|320}}\n\n")
		}
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString("[[Category:Blue Railroad]]\n")
	sb.WriteString("[[Category:Leaderboards]]")

	return sb.String()
}
