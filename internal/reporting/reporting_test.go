package reporting

import (
	"strings"
	"testing"

	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/ranking"
)

func v1Token() *domain.Token {
	return &domain.Token{
		ID:        0,
		SourceKey: "v1Src",
		Version:   domain.VersionV1,
		Owner:     "0xA",
		Video:     "ipfs://abc",
		Ordering:  domain.WallClock(1705685808),
		Extra:     map[string]string{domain.ExtraSongID: "5", domain.ExtraOwnerDisplay: "justin.eth", domain.ExtraDate: "1705685808"},
	}
}

func v2Token() *domain.Token {
	return &domain.Token{
		ID:        1,
		SourceKey: "v2Src",
		Version:   domain.VersionV2,
		Owner:     "0xA",
		Video:     "QmZtnFaddFtzGNT8BxdHVbQrhSFdq1pWxud5z4fA4kxfDt",
		Ordering:  domain.BlockHeight(500),
		Extra:     map[string]string{domain.ExtraVideoHash: "0x" + strings.Repeat("ab", 32)},
	}
}

func TestRenderTokenPage_V1(t *testing.T) {
	want := `{{Blue Railroad Token
|token_id=0
|song_id=5
|contract_version=V1
|thumbnail=Blue_Railroad_Video_abc.jpg
|date=2024-01-19
|date_raw=1705685808
|owner=0xA
|owner_display=justin.eth
|uri=ipfs://abc
|uri_type=ipfs
|ipfs_cid=abc
}}
`

	if got := RenderTokenPage(v1Token()); got != want {
		t.Errorf("RenderTokenPage() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTokenPage_LegacyV1Date(t *testing.T) {
	tok := v1Token()
	tok.Ordering = domain.WallClock(1768262400) // 2026-01-13 00:00 UTC
	tok.Extra[domain.ExtraDate] = "20260113"

	got := RenderTokenPage(tok)
	for _, line := range []string{"|date=2026-01-13\n", "|date_raw=20260113\n"} {
		if !strings.Contains(got, line) {
			t.Errorf("legacy V1 page missing %q:\n%s", line, got)
		}
	}
	if strings.Contains(got, "[[Category:") {
		t.Errorf("V1 pages are not categorised:\n%s", got)
	}
}

func TestRenderTokenPage_V2(t *testing.T) {
	got := RenderTokenPage(v2Token())

	for _, line := range []string{
		"|contract_version=V2",
		"|blockheight=500",
		"|video_hash=0x" + strings.Repeat("ab", 32),
		"|uri=ipfs://QmZtnFaddFtzGNT8BxdHVbQrhSFdq1pWxud5z4fA4kxfDt",
		"|ipfs_cid=QmZtnFaddFtzGNT8BxdHVbQrhSFdq1pWxud5z4fA4kxfDt",
		"|owner_display=0xA",
		"[[Category:Blue Railroad V2 Tokens]]",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("V2 page missing %q:\n%s", line, got)
		}
	}
	// Block heights are not dates.
	for _, label := range []string{"|date=", "|date_raw="} {
		if strings.Contains(got, label) {
			t.Errorf("V2 page must not carry %q:\n%s", label, got)
		}
	}
}

func TestRenderTokenPage_NoVideoAndNoOwner(t *testing.T) {
	tok := v2Token()
	tok.Video = ""
	tok.Owner = ""
	tok.Extra = nil

	got := RenderTokenPage(tok)
	for _, line := range []string{"|thumbnail=\n", "|uri=\n", "|uri_type=unknown\n", "|ipfs_cid=\n", "|owner=\n"} {
		if !strings.Contains(got, line) {
			t.Errorf("expected %q in:\n%s", line, got)
		}
	}
}

func TestRenderTokenPage_ByteIdentical(t *testing.T) {
	for i := 0; i < 10; i++ {
		if RenderTokenPage(v1Token()) != RenderTokenPage(v1Token()) {
			t.Fatal("repeated renders differ")
		}
	}
}

func TestRenderTokenPageOver(t *testing.T) {
	tok := v1Token()
	fresh := RenderTokenPage(tok)

	if got := RenderTokenPageOver(fresh, tok); got != fresh {
		t.Errorf("re-rendering over own output must be stable:\n%s", got)
	}

	edited := "Great form!\n\n" + fresh + "\n\n== Notes ==\nFilmed at the station."
	if got := RenderTokenPageOver(edited, tok); got != edited {
		t.Errorf("user content must be preserved:\n%s", got)
	}

	moved := *tok
	moved.Owner = "0xB"
	moved.Extra = nil
	got := RenderTokenPageOver(edited, &moved)
	if !strings.HasPrefix(got, "Great form!\n\n{{Blue Railroad Token\n") ||
		!strings.HasSuffix(got, "== Notes ==\nFilmed at the station.") ||
		!strings.Contains(got, "|owner=0xB\n") {
		t.Errorf("template not replaced in place:\n%s", got)
	}

	if got := RenderTokenPageOver("hand-written page", tok); got != fresh {
		t.Errorf("page without template should be replaced, got:\n%s", got)
	}
}

func TestChangedFields(t *testing.T) {
	tok := v1Token()
	before := RenderTokenPage(tok)

	moved := *tok
	moved.Owner = "0xB"
	after := RenderTokenPage(&moved)

	got := strings.Join(ChangedFields(before, after), ",")
	if got != "owner" {
		t.Errorf("expected only owner to change, got %q", got)
	}
	if n := len(ChangedFields(before, before)); n != 0 {
		t.Errorf("expected no changes, got %d", n)
	}
	if got := ChangedFields("plain text", after); len(got) != len(TemplateFields(after)) {
		t.Errorf("every field is new on a page without template, got %v", got)
	}
}

func TestRenderLeaderboard(t *testing.T) {
	a, b := v1Token(), v2Token()
	entries, stats, err := ranking.Rank([]*domain.Token{a, b}, ranking.Options{})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	got := RenderLeaderboard(LeaderboardPage{
		Spec: config.Leaderboard{
			Page:        "Blue Railroad Leaderboard",
			Title:       "Blue Railroad Leaderboard",
			Description: "Everyone.",
		},
		Entries: entries,
		Stats:   stats,
		Gallery: ranking.RecentWithVideo([]*domain.Token{a, b}, 10),
	})

	want := `'''Blue Railroad Leaderboard''' tracks ownership of [[Blue Railroad]] NFT tokens.

Everyone.

''This page is automatically generated. See [[PickiPedia:BlueRailroadConfig|bot configuration]] to modify.''

== Statistics ==
* '''Total Tokens:''' 2
* '''Total Holders:''' 1

== Leaderboard ==
{| class="wikitable sortable"
! Rank !! Holder !! Tokens !! Token IDs
|-
| 1 || justin.eth || 2 || [[Blue Railroad Token 0|#0]] (V1), [[Blue Railroad Token 1|#1]] (V2)
|}

== Recent Workouts ==

=== [[Blue Railroad Token 1|Token #1]] ===
'''0xA'''

{{#ev:videolink|https://gateway.pinata.cloud/ipfs/QmZtnFaddFtzGNT8BxdHVbQrhSFdq1pWxud5z4fA4kxfDt|320}}

=== [[Blue Railroad Token 0|Token #0]] ===
'''justin.eth'''

{{#ev:videolink|https://gateway.pinata.cloud/ipfs/abc|320}}

[[Category:Blue Railroad]]
[[Category:Leaderboards]]`

	if got != want {
		t.Errorf("RenderLeaderboard() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderLeaderboard_ExerciseAndEmpty(t *testing.T) {
	f, err := config.ParseFilter(`song == 10`)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	got := RenderLeaderboard(LeaderboardPage{
		Spec:       config.Leaderboard{Title: "Crawls", Filter: f},
		ConfigPage: "Project:BotConfig",
	})

	for _, want := range []string{
		"'''Exercise:''' Army Crawls ([[Ginseng Sullivan]])",
		"[[Project:BotConfig|bot configuration]]",
		"* '''Total Holders:''' 0",
		"|}\n\n[[Category:Blue Railroad]]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Recent Workouts") {
		t.Error("empty gallery should be omitted")
	}
	if ExerciseName("99") != "Exercise ID 99" {
		t.Errorf("unexpected fallback exercise name %q", ExerciseName("99"))
	}
}

func TestRenderRunSummary(t *testing.T) {
	s := &domain.RunSummary{RunID: "run-1", DryRun: true, TokensLoaded: 3, MalformedRecords: 1}
	s.Record(domain.PageResult{PageName: "Blue Railroad Token 0", Kind: domain.PageKindToken, Action: domain.PageActionCreate})
	s.Record(domain.PageResult{PageName: "Blue Railroad Token 1", Kind: domain.PageKindToken, Action: domain.PageActionUpdate, Error: "edit, rejected"})
	s.Record(domain.PageResult{PageName: "Leaderboard", Kind: domain.PageKindLeaderboard, Action: domain.PageActionSkip})
	s.Warnings = append(s.Warnings, "malformed record v1Src/x")

	md := RenderRunSummary(s)
	for _, want := range []string{
		"Run: run-1 (dry-run)",
		"| Malformed Records | 1 |",
		"| token | 1 | 0 | 0 | 1 |",
		"| leaderboard | 0 | 0 | 1 | 0 |",
		"- Blue Railroad Token 1: edit, rejected",
		"- malformed record v1Src/x",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}

	csv := RenderPageResultsCSV(s.Pages)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(lines))
	}
	if lines[2] != `Blue Railroad Token 1,token,update,false,"edit, rejected",` {
		t.Errorf("unexpected csv row %q", lines[2])
	}
}
