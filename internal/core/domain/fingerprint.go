package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex-encoded sha256 digest of a document's bytes.
// Identical content always yields the identical fingerprint, whatever the filename.
type Fingerprint string

// NewFingerprint computes the fingerprint of content.
func NewFingerprint(content []byte) Fingerprint {
	sum := sha256.Sum256(content)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the full hex digest.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first 16 hex characters for display.
func (f Fingerprint) Short() string {
	if len(f) <= 16 {
		return string(f)
	}
	return string(f[:16])
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == ""
}
