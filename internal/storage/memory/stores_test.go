package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

func TestPageStore_ReadWrite(t *testing.T) {
	store := NewPageStore()
	ctx := context.Background()

	_, exists, err := store.ReadPage(ctx, "Blue Railroad Token 1")
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing page")
	}

	if err := store.WritePage(ctx, "Blue Railroad Token 1", "content", "create"); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, exists, err := store.ReadPage(ctx, "Blue Railroad Token 1")
	if err != nil || !exists || got != "content" {
		t.Errorf("ReadPage = %q, %v, %v", got, exists, err)
	}

	edits := store.Edits()
	if len(edits) != 1 || edits[0].Summary != "create" {
		t.Errorf("unexpected edits: %+v", edits)
	}

	if err := store.WritePage(ctx, "", "x", ""); !errors.Is(err, storage.ErrPageWriteFailed) {
		t.Errorf("expected ErrPageWriteFailed, got %v", err)
	}
}

func TestPageStore_ConfigDocument(t *testing.T) {
	store := NewPageStore()
	ctx := context.Background()

	if _, err := store.FetchConfigDocument(ctx, "PickiPedia:BlueRailroadConfig"); !errors.Is(err, storage.ErrConfigPageMissing) {
		t.Fatalf("expected ErrConfigPageMissing, got %v", err)
	}

	store.Put("PickiPedia:BlueRailroadConfig", "sources: []")
	doc, err := store.FetchConfigDocument(ctx, "PickiPedia:BlueRailroadConfig")
	if err != nil || doc != "sources: []" {
		t.Errorf("FetchConfigDocument = %q, %v", doc, err)
	}
	if len(store.Edits()) != 0 {
		t.Error("Put must not record edits")
	}
}

func TestRunStore(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	older := &domain.RunSummary{RunID: "a", StartedAt: base}
	older.Record(domain.PageResult{PageName: "P", Kind: domain.PageKindToken, Action: domain.PageActionCreate, Applied: true})
	newer := &domain.RunSummary{RunID: "b", StartedAt: base.Add(time.Hour)}

	for _, r := range []*domain.RunSummary{older, newer} {
		if err := store.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}
	if err := store.SaveRun(ctx, older); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := store.SaveRun(ctx, &domain.RunSummary{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	got, err := store.GetRun(ctx, "a")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(got.Pages) != 1 || got.TokenPages.Created != 1 {
		t.Errorf("unexpected run: %+v", got)
	}

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "b" || runs[1].Pages != nil {
		t.Errorf("unexpected list: %+v", runs)
	}
}

func TestOwnershipSnapshotStore(t *testing.T) {
	store := NewOwnershipSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	tokens := []*domain.Token{
		{ID: 2, SourceKey: "v2Src", Version: domain.VersionV2, Owner: "0xA", Ordering: domain.BlockHeight(7)},
		{ID: 0, SourceKey: "v1Src", Version: domain.VersionV1, Owner: "0xA", Ordering: domain.WallClock(1000)},
		{ID: 1, SourceKey: "v1Src", Version: domain.VersionV1, Ordering: domain.WallClock(1001)},
	}
	var records []domain.OwnershipRecord
	for _, tok := range tokens {
		records = append(records, domain.NewOwnershipRecord("run-1", now, tok))
	}

	if err := store.InsertSnapshot(ctx, records); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	if err := store.InsertSnapshot(ctx, records); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	rows, err := store.GetSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(rows) != 3 || rows[0].TokenID != 0 || rows[2].SourceKey != "v2Src" {
		t.Errorf("unexpected order: %+v", rows)
	}
	if rows[2].OrderingKind != domain.OrderingBlockHeight {
		t.Errorf("ordering kind lost: %+v", rows[2])
	}

	counts, err := store.HolderCounts(ctx, "run-1")
	if err != nil {
		t.Fatalf("HolderCounts failed: %v", err)
	}
	if len(counts) != 1 || counts["0xA"] != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
