// Package chaindata reads pre-fetched chain snapshots.
// A snapshot is a JSON object keyed by source name; each source maps token ids to records.
package chaindata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// ErrSourceUnavailable is returned when a source key is absent from the snapshot.
var ErrSourceUnavailable = errors.New("source unavailable")

// RawRecord is one undecoded token record from a source.
type RawRecord struct {
	ID  string          // snapshot key, expected to be a token id
	Raw json.RawMessage // record body, decoded by the normalizer
}

// Source provides raw records per configured source key.
type Source interface {
	// Fetch returns the records of a source ordered by token id.
	// Returns ErrSourceUnavailable if the key does not exist.
	Fetch(ctx context.Context, sourceKey string) ([]RawRecord, error)
}

// Snapshot is an in-memory chain data snapshot.
type Snapshot struct {
	sources map[string]map[string]json.RawMessage
}

// Compile-time interface check.
var _ Source = (*Snapshot)(nil)

// Load decodes a snapshot from r.
func Load(r io.Reader) (*Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, fmt.Errorf("decode chain data: %w", err)
	}

	s := &Snapshot{sources: make(map[string]map[string]json.RawMessage, len(top))}
	for key, body := range top {
		var records map[string]json.RawMessage
		// Non-object top-level entries (block numbers, metadata) are not sources.
		if err := json.Unmarshal(body, &records); err != nil {
			continue
		}
		s.sources[key] = records
	}
	return s, nil
}

// LoadFile loads a snapshot from a JSON file.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain data: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Fetch returns the records of sourceKey ordered by numeric id, then by raw key.
func (s *Snapshot) Fetch(ctx context.Context, sourceKey string) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, ok := s.sources[sourceKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceUnavailable, sourceKey)
	}

	result := make([]RawRecord, 0, len(records))
	for id, raw := range records {
		result = append(result, RawRecord{ID: id, Raw: raw})
	}
	SortRecords(result)
	return result, nil
}

// Keys returns the source keys present in the snapshot, sorted.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.sources))
	for k := range s.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortRecords orders records by (numeric id ASC, raw id ASC).
// Non-numeric ids sort after numeric ones.
func SortRecords(records []RawRecord) {
	sort.Slice(records, func(i, j int) bool {
		return compareIDs(records[i].ID, records[j].ID) < 0
	})
}

func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return 0
}
