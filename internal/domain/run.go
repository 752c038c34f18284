package domain

import "time"

// PageResult is the outcome of one planned page.
type PageResult struct {
	PageName string
	Kind     PageKind
	Action   PageAction
	Applied  bool   // false in dry-run or on failure
	Error    string // PageWriteFailed reason, "" on success
	Digest   string // sha256 of desired content
}

// Failed reports whether the write failed.
func (r PageResult) Failed() bool {
	return r.Error != ""
}

// PageCounts aggregates page outcomes for one page kind.
type PageCounts struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// RunSummary reports one orchestration pass.
type RunSummary struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	DryRun           bool
	TokensLoaded     int
	MalformedRecords int
	TokenPages       PageCounts
	LeaderboardPages PageCounts
	Pages            []PageResult
	Warnings         []string
}

// Record adds a page result to the matching counters.
func (s *RunSummary) Record(r PageResult) {
	s.Pages = append(s.Pages, r)
	c := &s.TokenPages
	if r.Kind == PageKindLeaderboard {
		c = &s.LeaderboardPages
	}
	switch {
	case r.Failed():
		c.Failed++
	case r.Action == PageActionCreate:
		c.Created++
	case r.Action == PageActionUpdate:
		c.Updated++
	default:
		c.Skipped++
	}
}

// Writes returns how many pages were (or in dry-run would be) written.
func (s *RunSummary) Writes() int {
	return s.TokenPages.Created + s.TokenPages.Updated +
		s.LeaderboardPages.Created + s.LeaderboardPages.Updated
}

// Failures returns the number of failed page writes.
func (s *RunSummary) Failures() int {
	return s.TokenPages.Failed + s.LeaderboardPages.Failed
}
