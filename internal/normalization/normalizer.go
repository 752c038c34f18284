// Package normalization converts raw V1/V2 chain-data records into domain.Token values.
// All functions are pure: no I/O, no shared state.
package normalization

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"blue-railroad-bot/internal/chaindata"
	"blue-railroad-bot/internal/domain"
)

// Record field names in chain data.
const (
	fieldOwner       = "owner"
	fieldURI         = "uri"
	fieldDate        = "date"
	fieldVideoHash   = "videoHash"
	fieldBlockHeight = "blockheight"
)

// NormalizeRecord converts one raw record read under src into a Token.
// The version comes from src, never from record shape.
func NormalizeRecord(src domain.SourceDecl, rec chaindata.RawRecord) (*domain.Token, error) {
	id, err := strconv.ParseInt(rec.ID, 10, 64)
	if err != nil || id < 0 {
		return nil, malformed(src.Key, rec.ID, "token id %q is not a non-negative integer", rec.ID)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec.Raw, &fields); err != nil || fields == nil {
		return nil, malformed(src.Key, rec.ID, "record is not a JSON object")
	}

	token := &domain.Token{
		ID:        id,
		SourceKey: src.Key,
		Version:   src.Version,
		Extra:     make(map[string]string),
	}

	owner, _, err := scalar(fields[fieldOwner])
	if err != nil {
		return nil, malformed(src.Key, rec.ID, "owner: %v", err)
	}
	token.Owner = owner

	switch src.Version {
	case domain.VersionV1:
		err = normalizeV1(token, fields)
	case domain.VersionV2:
		err = normalizeV2(token, fields)
	default:
		return nil, malformed(src.Key, rec.ID, "source declares unknown version %q", src.Version)
	}
	if err != nil {
		return nil, malformed(src.Key, rec.ID, "%v", err)
	}

	// Keep every other scalar for rendering.
	for name, raw := range fields {
		if name == fieldOwner || name == fieldDate || name == fieldBlockHeight {
			continue
		}
		if v, ok, err := scalar(raw); err == nil && ok {
			token.Extra[name] = v
		}
	}

	return token, nil
}

func normalizeV1(t *domain.Token, fields map[string]json.RawMessage) error {
	uri, ok, err := scalar(fields[fieldURI])
	if err != nil {
		return fmt.Errorf("uri: %v", err)
	}
	if !ok || uri == "" {
		return fmt.Errorf("missing required field %q", fieldURI)
	}

	date, ok, err := integer(fields[fieldDate])
	if err != nil {
		return fmt.Errorf("date: %v", err)
	}
	if !ok {
		return fmt.Errorf("missing required field %q", fieldDate)
	}
	unix, err := v1Date(date)
	if err != nil {
		return err
	}

	t.Video = uri
	t.Ordering = domain.WallClock(unix)
	t.Extra[domain.ExtraDate] = strconv.FormatInt(date, 10)
	return nil
}

// v1Date converts a V1 date to Unix seconds. Early V1 mints recorded YYYYMMDD
// integers; those become midnight UTC so they order with later timestamps.
func v1Date(date int64) (int64, error) {
	s := strconv.FormatInt(date, 10)
	if len(s) != 8 || s[0] != '2' {
		return date, nil
	}
	d, err := time.Parse("20060102", s)
	if err != nil {
		return 0, fmt.Errorf("date: invalid YYYYMMDD value %d", date)
	}
	return d.Unix(), nil
}

func normalizeV2(t *domain.Token, fields map[string]json.RawMessage) error {
	hash, ok, err := scalar(fields[fieldVideoHash])
	if err != nil {
		return fmt.Errorf("videoHash: %v", err)
	}
	if !ok {
		return fmt.Errorf("missing required field %q", fieldVideoHash)
	}

	digest, err := DecodeVideoHash(hash)
	if err != nil {
		return err
	}
	cid, err := DigestToCIDv0(digest)
	if err != nil {
		return err
	}

	height, ok, err := integer(fields[fieldBlockHeight])
	if err != nil {
		return fmt.Errorf("blockheight: %v", err)
	}
	if !ok {
		return fmt.Errorf("missing required field %q", fieldBlockHeight)
	}

	t.Video = cid
	t.Ordering = domain.BlockHeight(height)
	return nil
}

// NormalizeSource normalizes every record of a source.
// Malformed records are returned as errors and skipped; siblings keep processing.
func NormalizeSource(src domain.SourceDecl, records []chaindata.RawRecord) ([]*domain.Token, []error) {
	tokens := make([]*domain.Token, 0, len(records))
	var errs []error
	for _, rec := range records {
		t, err := NormalizeRecord(src, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, errs
}

// SortTokens orders tokens by (id ASC, source_key ASC).
func SortTokens(tokens []*domain.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].ID != tokens[j].ID {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].SourceKey < tokens[j].SourceKey
	})
}

// MergeTokens collapses tokens sharing an id into one canonical token per page.
// A V2 token replaces a V1 token with the same id (migrated token); otherwise the
// first source in declaration order wins. Output is ordered by id.
func MergeTokens(tokens []*domain.Token) []*domain.Token {
	byID := make(map[int64]*domain.Token, len(tokens))
	for _, t := range tokens {
		existing, ok := byID[t.ID]
		if !ok || (t.IsV2() && !existing.IsV2()) {
			byID[t.ID] = t
		}
	}

	merged := make([]*domain.Token, 0, len(byID))
	for _, t := range byID {
		merged = append(merged, t)
	}
	SortTokens(merged)
	return merged
}
