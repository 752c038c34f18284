package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentDigest computes a deterministic digest of page content using SHA256.
// Returns hex-encoded hash (64 characters).
func ContentDigest(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Short returns the first 12 characters of a digest, for log lines.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
