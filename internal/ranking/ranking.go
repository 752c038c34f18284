// Package ranking orders token owners for leaderboards.
//
// Every function here is pure: the output depends only on the set of input
// tokens, never on their order.
package ranking

import (
	"fmt"
	"sort"

	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
)

// Options restricts and orders a ranking.
type Options struct {
	Filter     *config.Filter  // applied before grouping, nil matches all
	Sort       config.SortMode // "" means count
	SourceKeys []string        // tokens from other sources are ignored, empty means all
}

// Entry is one ranked owner.
type Entry struct {
	Rank         int
	Owner        string
	OwnerDisplay string
	Count        int
	Tokens       []*domain.Token // id asc, then source key
}

// Stats summarizes the tokens that took part in a ranking.
type Stats struct {
	TotalTokens int
	Holders     int
}

// Rank groups matching tokens by owner and orders the owners.
//
// count:  token count desc, owner asc.
// newest: most recent token desc, then count desc, owner asc.
// oldest: earliest token asc, then count desc, owner asc.
//
// Tokens owned by the burn address never rank. Tokens without owner are
// skipped unless the filter asks for them with `owner == ""`.
// newest and oldest return domain.ErrIncomparableOrdering when the tokens mix
// wall-clock and block-height orderings.
func Rank(tokens []*domain.Token, opts Options) ([]Entry, Stats, error) {
	selected := Select(tokens, opts)

	groups := make(map[string]*Entry)
	for _, t := range selected {
		e, ok := groups[t.Owner]
		if !ok {
			e = &Entry{Owner: t.Owner}
			groups[t.Owner] = e
		}
		e.Tokens = append(e.Tokens, t)
		e.Count++
	}

	entries := make([]Entry, 0, len(groups))
	for _, e := range groups {
		sortTokens(e.Tokens)
		e.OwnerDisplay = ownerDisplay(e)
		entries = append(entries, *e)
	}

	stats := Stats{TotalTokens: len(selected), Holders: len(entries)}

	less, err := comparator(entries, opts.Sort)
	if err != nil {
		return nil, Stats{}, err
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, stats, nil
}

// Select returns the tokens that take part in a ranking, in id order.
func Select(tokens []*domain.Token, opts Options) []*domain.Token {
	var sources map[string]bool
	if len(opts.SourceKeys) > 0 {
		sources = make(map[string]bool, len(opts.SourceKeys))
		for _, k := range opts.SourceKeys {
			sources[k] = true
		}
	}
	unowned := opts.Filter.RequestsUnknownOwner()

	var out []*domain.Token
	for _, t := range tokens {
		if t == nil {
			continue
		}
		if sources != nil && !sources[t.SourceKey] {
			continue
		}
		if t.IsBurned() {
			continue
		}
		if t.Owner == "" && !unowned {
			continue
		}
		if !opts.Filter.Match(t) {
			continue
		}
		out = append(out, t)
	}
	sortTokens(out)
	return out
}

func comparator(entries []Entry, mode config.SortMode) (func(a, b Entry) bool, error) {
	byCount := func(a, b Entry) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Owner < b.Owner
	}

	switch mode {
	case "", config.SortCount:
		return byCount, nil
	case config.SortNewest, config.SortOldest:
	default:
		return nil, fmt.Errorf("unsupported sort mode %q", mode)
	}

	newest := mode == config.SortNewest
	keys := make(map[string]domain.Ordering, len(entries))
	var kind domain.OrderingKind
	for _, e := range entries {
		var best domain.Ordering
		for i, t := range e.Tokens {
			if kind == "" {
				kind = t.Ordering.Kind
			}
			if t.Ordering.Kind != kind {
				return nil, fmt.Errorf("sort %s: %w", mode, domain.ErrIncomparableOrdering)
			}
			c, _ := t.Ordering.Compare(best)
			if i == 0 || (newest && c > 0) || (!newest && c < 0) {
				best = t.Ordering
			}
		}
		keys[e.Owner] = best
	}

	return func(a, b Entry) bool {
		ka, kb := keys[a.Owner], keys[b.Owner]
		if ka.Value != kb.Value {
			if newest {
				return ka.Value > kb.Value
			}
			return ka.Value < kb.Value
		}
		return byCount(a, b)
	}, nil
}

// ownerDisplay picks the display name of the lowest-id token that has one.
func ownerDisplay(e *Entry) string {
	for _, t := range e.Tokens {
		if d := t.Extra[domain.ExtraOwnerDisplay]; d != "" {
			return d
		}
	}
	return e.Owner
}

func sortTokens(tokens []*domain.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].ID != tokens[j].ID {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].SourceKey < tokens[j].SourceKey
	})
}
