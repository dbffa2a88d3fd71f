package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a short prefixed identifier such as "bkg_1a2b3c4d".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:8]
}

// NormalizeEmail lowercases and trims an email address so that lookups and
// derived ids are insensitive to case and surrounding whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CustomerIDFromEmail derives a stable customer id from an email address.
// The same mailbox always maps to the same id regardless of formatting.
func CustomerIDFromEmail(email string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return "cus_" + hex.EncodeToString(sum[:])[:12]
}
