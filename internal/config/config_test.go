package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blue-railroad-bot/internal/domain"
)

const samplePage = `This page configures the Blue Railroad import bot.

<syntaxhighlight lang="yaml">
sources:
  - key: blueRailroads
    version: V1
    name: Blue Railroad V1
    network_id: "10"
  - key: blueRailroadV2s
    version: v2
    name: Blue Railroad V2
leaderboards:
  - page: Blue Railroad Leaderboard
    description: All holders.
  - page: Blue Railroad Squats Leaderboard
    title: Squats
    sources: [blueRailroadV2s]
    filter: 'song == "5"'
    sort: newest
    gallery: 0
future_section:
  anything: goes
</syntaxhighlight>

[[Category:Bot configuration]]`

func TestParse_SamplePage(t *testing.T) {
	cfg, err := Parse(samplePage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &BotConfig{
		Sources: []domain.SourceDecl{
			{Key: "blueRailroads", Name: "Blue Railroad V1", Version: domain.VersionV1, NetworkID: "10"},
			{Key: "blueRailroadV2s", Name: "Blue Railroad V2", Version: domain.VersionV2},
		},
		Leaderboards: []Leaderboard{
			{
				Page:        "Blue Railroad Leaderboard",
				Title:       "Blue Railroad Leaderboard",
				Description: "All holders.",
				SourceKeys:  []string{"blueRailroads", "blueRailroadV2s"},
				Sort:        SortCount,
				Gallery:     DefaultGallerySize,
			},
			{
				Page:       "Blue Railroad Squats Leaderboard",
				Title:      "Squats",
				SourceKeys: []string{"blueRailroadV2s"},
				Filter: &Filter{
					Expr:    `song == "5"`,
					Clauses: []Clause{{Attr: AttrSong, Op: OpEqual, Value: "5"}},
				},
				Sort:    SortNewest,
				Gallery: 0,
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, err := Parse(samplePage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(samplePage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cmp.Equal(a, b) {
		t.Errorf("parsing twice produced different configs:\n%s", cmp.Diff(a, b))
	}
}

func TestParse_BareYAML(t *testing.T) {
	cfg, err := Parse("sources:\n  - key: v1Src\n    version: V1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Sources) != 1 || len(cfg.Leaderboards) != 0 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		section string
	}{
		{
			name: "empty",
			doc:  "   ",
		},
		{
			name: "invalid yaml",
			doc:  "sources: [",
		},
		{
			name:    "no sources",
			doc:     "leaderboards:\n  - page: X\n",
			section: "sources",
		},
		{
			name:    "source without version",
			doc:     "sources:\n  - key: a\n",
			section: "sources[0].version",
		},
		{
			name:    "unknown version",
			doc:     "sources:\n  - key: a\n    version: V3\n",
			section: "sources[0].version",
		},
		{
			name:    "duplicate source",
			doc:     "sources:\n  - {key: a, version: V1}\n  - {key: a, version: V2}\n",
			section: "sources[1]",
		},
		{
			name:    "leaderboard without page",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - title: X\n",
			section: "leaderboards[0].page",
		},
		{
			name:    "undeclared source",
			doc:     "sources:\n  - {key: v1Src, version: V1}\nleaderboards:\n  - page: X\n    sources: [v1Src, missing]\n",
			section: "leaderboards[0].sources",
		},
		{
			name:    "unsupported operator",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: X\n    filter: 'id > 5'\n",
			section: "leaderboards[0].filter",
		},
		{
			name:    "unsupported sort",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: X\n    sort: random\n",
			section: "leaderboards[0].sort",
		},
		{
			name:    "newest across versions",
			doc:     "sources:\n  - {key: a, version: V1}\n  - {key: b, version: V2}\nleaderboards:\n  - page: X\n    sort: newest\n",
			section: "leaderboards[0].sort",
		},
		{
			name:    "leaderboard page with link syntax",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: '[[Board]]'\n",
			section: "leaderboards[0].page",
		},
		{
			name:    "leaderboard page with fragment",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: 'Board#Top'\n",
			section: "leaderboards[0].page",
		},
		{
			name:    "leaderboard page too long",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: " + strings.Repeat("x", 256) + "\n",
			section: "leaderboards[0].page",
		},
		{
			name:    "duplicate leaderboard page",
			doc:     "sources:\n  - {key: a, version: V1}\nleaderboards:\n  - page: X\n  - page: X\n",
			section: "leaderboards[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			if !errors.Is(err, ErrConfigParse) {
				t.Fatalf("expected ErrConfigParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Reason == "" {
				t.Error("expected a human-readable reason")
			}
			if tt.section != "" && !strings.HasSuffix(pe.Section, tt.section) {
				t.Errorf("expected section %q, got %q (%v)", tt.section, pe.Section, err)
			}
		})
	}
}

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"bare", "a: 1", "a: 1"},
		{"pre", "intro\n<pre>\na: 1\n</pre>\noutro", "a: 1"},
		{"source", `<source lang="yaml">a: 1</source>`, "a: 1"},
		{"earliest block wins", "<pre>a: 1</pre>\n<syntaxhighlight lang=\"yaml\">b: 2</syntaxhighlight>", "a: 1"},
	}
	for _, tt := range tests {
		if got := ExtractPayload(tt.page); got != tt.want {
			t.Errorf("%s: ExtractPayload() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
