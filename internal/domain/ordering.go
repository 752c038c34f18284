package domain

import (
	"errors"
	"fmt"
	"time"
)

// OrderingKind tags what an Ordering value measures.
type OrderingKind string

const (
	// OrderingWallClock is a Unix timestamp in seconds (V1 mint date).
	OrderingWallClock OrderingKind = "WALL_CLOCK_TIME"
	// OrderingBlockHeight is a block number (V2 mint height). Not a time.
	OrderingBlockHeight OrderingKind = "BLOCK_HEIGHT"
)

// ErrIncomparableOrdering is returned when comparing orderings of different kinds.
var ErrIncomparableOrdering = errors.New("orderings of different kinds are not comparable")

// Ordering is the per-version monotonic position of a token.
// V1 carries wall-clock time, V2 carries block height; the two never compare.
type Ordering struct {
	Kind  OrderingKind
	Value int64
}

// WallClock returns a wall-clock ordering.
func WallClock(unix int64) Ordering {
	return Ordering{Kind: OrderingWallClock, Value: unix}
}

// BlockHeight returns a block-height ordering.
func BlockHeight(height int64) Ordering {
	return Ordering{Kind: OrderingBlockHeight, Value: height}
}

// IsZero reports whether the ordering carries no value.
func (o Ordering) IsZero() bool {
	return o.Kind == "" && o.Value == 0
}

// Compare returns -1, 0 or 1. Orderings of different kinds return ErrIncomparableOrdering.
func (o Ordering) Compare(other Ordering) (int, error) {
	if o.Kind != other.Kind {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncomparableOrdering, o.Kind, other.Kind)
	}
	switch {
	case o.Value < other.Value:
		return -1, nil
	case o.Value > other.Value:
		return 1, nil
	default:
		return 0, nil
	}
}

// FormatDate renders a wall-clock ordering as YYYY-MM-DD (UTC).
// Returns "" for block heights and values shorter than ten digits.
func (o Ordering) FormatDate() string {
	if o.Kind != OrderingWallClock || o.Value <= 0 {
		return ""
	}
	if o.Value >= 1_000_000_000 {
		return time.Unix(o.Value, 0).UTC().Format("2006-01-02")
	}
	return ""
}
