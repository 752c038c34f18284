package ranking

import (
	"sort"

	"blue-railroad-bot/internal/domain"
)

// RecentWithVideo returns up to limit tokens that carry an IPFS video, most recent first.
// V2 tokens come first by block height desc, then V1 tokens by mint time desc;
// ties fall back to id desc. Heights and timestamps are never compared with each other.
func RecentWithVideo(tokens []*domain.Token, limit int) []*domain.Token {
	if limit <= 0 {
		return nil
	}

	var withVideo []*domain.Token
	for _, t := range tokens {
		if t != nil && t.IPFSCID() != "" {
			withVideo = append(withVideo, t)
		}
	}

	sort.Slice(withVideo, func(i, j int) bool {
		a, b := withVideo[i], withVideo[j]
		if a.IsV2() != b.IsV2() {
			return a.IsV2()
		}
		if a.Ordering.Value != b.Ordering.Value {
			return a.Ordering.Value > b.Ordering.Value
		}
		if a.ID != b.ID {
			return a.ID > b.ID
		}
		return a.SourceKey < b.SourceKey
	})

	if len(withVideo) > limit {
		withVideo = withVideo[:limit]
	}
	return withVideo
}
