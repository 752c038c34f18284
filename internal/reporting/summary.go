package reporting

import (
	"fmt"
	"strings"
	"time"

	"blue-railroad-bot/internal/domain"
)

// RenderRunSummary renders a run summary as Markdown.
func RenderRunSummary(s *domain.RunSummary) string {
	var sb strings.Builder

	mode := "live"
	if s.DryRun {
		mode = "dry-run"
	}

	// Header
	sb.WriteString("# Blue Railroad Import\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s (%s)\n\n", s.RunID, mode))
	if !s.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Started: %s | Duration: %s\n\n",
			s.StartedAt.UTC().Format(time.RFC3339), s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)))
	}

	// Inputs
	sb.WriteString("## Chain Data\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Tokens Loaded | %d |\n", s.TokensLoaded))
	sb.WriteString(fmt.Sprintf("| Malformed Records | %d |\n", s.MalformedRecords))
	sb.WriteString("\n")

	// Pages
	sb.WriteString("## Pages\n\n")
	sb.WriteString("| Kind | Created | Updated | Skipped | Failed |\n")
	sb.WriteString("|------|---------|---------|---------|--------|\n")
	writeCounts(&sb, "token", s.TokenPages)
	writeCounts(&sb, "leaderboard", s.LeaderboardPages)
	sb.WriteString("\n")

	// Failures are listed individually, skips are not.
	var failed []domain.PageResult
	for _, p := range s.Pages {
		if p.Failed() {
			failed = append(failed, p)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("### Failed Writes\n\n")
		for _, p := range failed {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", p.PageName, p.Error))
		}
		sb.WriteString("\n")
	}

	if len(s.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range s.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeCounts(sb *strings.Builder, kind string, c domain.PageCounts) {
	sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d |\n", kind, c.Created, c.Updated, c.Skipped, c.Failed))
}

// RenderPageResultsCSV renders per-page outcomes as CSV.
func RenderPageResultsCSV(pages []domain.PageResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("page_name,kind,action,applied,error,digest\n")

	// Rows
	for _, p := range pages {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%t,%s,%s\n",
			csvField(p.PageName),
			p.Kind,
			p.Action,
			p.Applied,
			csvField(p.Error),
			p.Digest,
		))
	}

	return sb.String()
}

func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
