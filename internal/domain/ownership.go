package domain

import "time"

// OwnershipRecord is one token's ownership as observed by one run.
// Rows are append-only; a run's rows form its ownership snapshot.
type OwnershipRecord struct {
	RunID         string
	ObservedAt    time.Time
	SourceKey     string
	TokenID       int64
	Version       Version
	Owner         string
	OrderingKind  OrderingKind
	OrderingValue int64
	VideoCID      string
}

// NewOwnershipRecord captures a token for a run.
func NewOwnershipRecord(runID string, observedAt time.Time, t *Token) OwnershipRecord {
	return OwnershipRecord{
		RunID:         runID,
		ObservedAt:    observedAt,
		SourceKey:     t.SourceKey,
		TokenID:       t.ID,
		Version:       t.Version,
		Owner:         t.Owner,
		OrderingKind:  t.Ordering.Kind,
		OrderingValue: t.Ordering.Value,
		VideoCID:      t.IPFSCID(),
	}
}
