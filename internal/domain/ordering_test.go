package domain

import (
	"errors"
	"testing"
)

func TestOrdering_CompareSameKind(t *testing.T) {
	tests := []struct {
		a, b Ordering
		want int
	}{
		{WallClock(100), WallClock(200), -1},
		{WallClock(200), WallClock(100), 1},
		{BlockHeight(5), BlockHeight(5), 0},
	}
	for _, tt := range tests {
		got, err := tt.a.Compare(tt.b)
		if err != nil {
			t.Fatalf("Compare(%+v, %+v): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%+v, %+v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOrdering_CompareAcrossKinds(t *testing.T) {
	_, err := WallClock(1000).Compare(BlockHeight(500))
	if !errors.Is(err, ErrIncomparableOrdering) {
		t.Errorf("expected ErrIncomparableOrdering, got %v", err)
	}
}

func TestOrdering_FormatDate(t *testing.T) {
	tests := []struct {
		name string
		o    Ordering
		want string
	}{
		{"unix timestamp", WallClock(1705685808), "2024-01-19"},
		{"midnight", WallClock(1768262400), "2026-01-13"},
		{"block height", BlockHeight(12345678), ""},
		{"zero", WallClock(0), ""},
		{"short value", WallClock(1000), ""},
	}
	for _, tt := range tests {
		if got := tt.o.FormatDate(); got != tt.want {
			t.Errorf("%s: FormatDate() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToken_Accessors(t *testing.T) {
	v1 := &Token{ID: 1, SourceKey: "blueRailroads", Version: VersionV1, Owner: "0x123", Video: "ipfs://QmXyz"}
	if v1.IPFSCID() != "QmXyz" {
		t.Errorf("expected QmXyz, got %q", v1.IPFSCID())
	}
	if v1.OwnerDisplay() != "0x123" {
		t.Errorf("expected owner fallback, got %q", v1.OwnerDisplay())
	}
	if v1.Key() != "blueRailroads/1" {
		t.Errorf("unexpected key %q", v1.Key())
	}

	https := &Token{Version: VersionV1, Video: "https://example.com/v.mp4"}
	if https.IPFSCID() != "" {
		t.Errorf("expected no cid for non-ipfs uri, got %q", https.IPFSCID())
	}

	burned := &Token{Owner: "0x000000000000000000000000000000000000DEAD"}
	if !burned.IsBurned() {
		t.Error("expected burn address to be detected case-insensitively")
	}
}

func TestPageWrite_Decide(t *testing.T) {
	tests := []struct {
		name string
		w    PageWrite
		want PageAction
	}{
		{"absent", PageWrite{DesiredContent: "a"}, PageActionCreate},
		{"equal", PageWrite{Exists: true, CurrentContent: "a", DesiredContent: "a"}, PageActionSkip},
		{"differ", PageWrite{Exists: true, CurrentContent: "a", DesiredContent: "a\n"}, PageActionUpdate},
		{"empty existing page", PageWrite{Exists: true, CurrentContent: "", DesiredContent: "a"}, PageActionUpdate},
	}
	for _, tt := range tests {
		tt.w.Decide()
		if tt.w.Action != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, tt.w.Action, tt.want)
		}
	}
}
