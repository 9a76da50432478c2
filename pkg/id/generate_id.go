package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewReference returns an uppercase transaction reference such as
// "STX8F14E45FCEEA4B7A9F1C2D3E4B5A6978": the prefix followed by a v4 UUID without hyphens.
func NewReference(prefix string) string {
	u := uuid.New()
	return strings.ToUpper(prefix + strings.ReplaceAll(u.String(), "-", ""))
}
