package normalization

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// VideoHashSize is the digest length stored by the V2 contract (bytes32).
const VideoHashSize = 32

// CIDv0 multihash header: sha2-256 code, 32-byte length.
var cidv0Prefix = []byte{0x12, 0x20}

// DecodeVideoHash decodes a hex-encoded bytes32 (optional 0x prefix).
func DecodeVideoHash(s string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	digest, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("decode video hash: %w", err)
	}
	if len(digest) != VideoHashSize {
		return nil, fmt.Errorf("video hash is %d bytes, want %d", len(digest), VideoHashSize)
	}
	return digest, nil
}

// DigestToCIDv0 base58-encodes the multihash-prefixed digest.
// Returns "" for an all-zero digest, which the contract uses for "no video".
func DigestToCIDv0(digest []byte) (string, error) {
	if len(digest) != VideoHashSize {
		return "", fmt.Errorf("digest is %d bytes, want %d", len(digest), VideoHashSize)
	}
	if isZero(digest) {
		return "", nil
	}
	multihash := make([]byte, 0, len(cidv0Prefix)+len(digest))
	multihash = append(multihash, cidv0Prefix...)
	multihash = append(multihash, digest...)
	return base58.Encode(multihash), nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
