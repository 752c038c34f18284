package orchestrator

import (
	"context"
	"fmt"

	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/idhash"
	"blue-railroad-bot/internal/normalization"
	"blue-railroad-bot/internal/ranking"
	"blue-railroad-bot/internal/reporting"
)

// plannedPage is a PageWrite plus what is needed to render it over the current page.
type plannedPage struct {
	domain.PageWrite
	token  *domain.Token // token pages only
	digest string
}

// buildPlan renders every page, reads its current content and decides the action.
// All reads happen here, before any write.
func (o *Orchestrator) buildPlan(ctx context.Context, cfg *config.BotConfig, tokens []*domain.Token) ([]*plannedPage, error) {
	var plan []*plannedPage
	seen := map[string]string{o.configPage: "configuration page"}

	for _, t := range normalization.MergeTokens(tokens) {
		name := reporting.TokenPageName(t.ID)
		seen[name] = "token page"
		plan = append(plan, &plannedPage{
			PageWrite: domain.PageWrite{PageName: name, Kind: domain.PageKindToken},
			token:     t,
		})
	}

	for i, lb := range cfg.Leaderboards {
		if prev, ok := seen[lb.Page]; ok {
			return nil, &config.ParseError{
				Section: fmt.Sprintf("leaderboards[%d].page", i),
				Reason:  fmt.Sprintf("page %q collides with a %s", lb.Page, prev),
			}
		}
		seen[lb.Page] = "leaderboard page"

		content, err := o.renderLeaderboard(lb, tokens)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %q: %w", lb.Page, err)
		}
		plan = append(plan, &plannedPage{
			PageWrite: domain.PageWrite{
				PageName:       lb.Page,
				Kind:           domain.PageKindLeaderboard,
				DesiredContent: content,
				Summary:        "Updated leaderboard from chain data",
			},
		})
	}

	for _, p := range plan {
		current, exists, err := o.pages.ReadPage(ctx, p.PageName)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", p.PageName, err)
		}
		p.CurrentContent, p.Exists = current, exists

		if p.token != nil {
			verb := "Imported"
			p.DesiredContent = reporting.RenderTokenPage(p.token)
			if exists {
				verb = "Updated"
				p.DesiredContent = reporting.RenderTokenPageOver(current, p.token)
			}
			p.Summary = fmt.Sprintf("%s Blue Railroad token #%d from chain data", verb, p.token.ID)
		}

		p.digest = idhash.ContentDigest(p.DesiredContent)
		p.Decide()
	}

	return plan, nil
}

// renderLeaderboard ranks the leaderboard's sources. Tokens present in both a
// V1 and a V2 source are counted once, as their V2 token.
func (o *Orchestrator) renderLeaderboard(lb config.Leaderboard, tokens []*domain.Token) (string, error) {
	keys := make(map[string]bool, len(lb.SourceKeys))
	for _, k := range lb.SourceKeys {
		keys[k] = true
	}
	var scoped []*domain.Token
	for _, t := range tokens {
		if keys[t.SourceKey] {
			scoped = append(scoped, t)
		}
	}
	merged := normalization.MergeTokens(scoped)

	opts := ranking.Options{Filter: lb.Filter, Sort: lb.Sort, SourceKeys: lb.SourceKeys}
	entries, stats, err := ranking.Rank(merged, opts)
	if err != nil {
		return "", err
	}

	return reporting.RenderLeaderboard(reporting.LeaderboardPage{
		Spec:       lb,
		Entries:    entries,
		Stats:      stats,
		Gallery:    ranking.RecentWithVideo(ranking.Select(merged, opts), lb.Gallery),
		ConfigPage: o.configPage,
	}), nil
}
