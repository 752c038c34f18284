package domain

import (
	"strconv"
	"strings"
)

// Well-known Extra keys carried over from chain data.
const (
	ExtraDate         = "date" // V1 chain value as recorded, before conversion to Unix time
	ExtraOwnerDisplay = "ownerDisplay"
	ExtraSongID       = "songId"
	ExtraURI          = "uri"
	ExtraVideoHash    = "videoHash"
)

// BurnAddress receives destroyed tokens; it never ranks on a leaderboard.
const BurnAddress = "0x000000000000000000000000000000000000dead"

// Token is the unified Blue Railroad token, normalized from a V1 or V2 record.
// ID + SourceKey identify a token uniquely.
type Token struct {
	ID        int64             // token id from chain data, never fabricated
	SourceKey string            // chain-data collection the token was read from
	Version   Version           // V1 | V2
	Owner     string            // wallet address, may be empty
	Video     string            // V1: uri verbatim; V2: CIDv0 ("" when no video)
	Ordering  Ordering          // V1: wall-clock time; V2: block height
	Extra     map[string]string // additional source fields kept for rendering
}

// Key returns "sourceKey/id".
func (t *Token) Key() string {
	return t.SourceKey + "/" + strconv.FormatInt(t.ID, 10)
}

// IsV2 reports whether the token comes from the V2 contract.
func (t *Token) IsV2() bool {
	return t.Version == VersionV2
}

// OwnerDisplay returns the display name for the owner, falling back to the address.
func (t *Token) OwnerDisplay() string {
	if d := t.Extra[ExtraOwnerDisplay]; d != "" {
		return d
	}
	return t.Owner
}

// SongID returns the song id the token was minted for, or "".
func (t *Token) SongID() string {
	return t.Extra[ExtraSongID]
}

// IsBurned reports whether the token sits at the burn address.
func (t *Token) IsBurned() bool {
	return t.Owner != "" && strings.EqualFold(t.Owner, BurnAddress)
}

// IPFSCID returns the IPFS content identifier of the token video, or "".
func (t *Token) IPFSCID() string {
	if t.IsV2() {
		return t.Video
	}
	if strings.HasPrefix(t.Video, "ipfs://") {
		return strings.TrimPrefix(t.Video, "ipfs://")
	}
	return ""
}
