// Package idempotency derives deterministic keys for exported documents.
// Key = Hash(SessionID + Document), so re-exporting an unchanged document is a no-op downstream.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GenerateKey creates a deterministic idempotency key from a session and its document
func GenerateKey(sessionID, document string) string {
	return hashParts(sessionID, normalizeDocument(document))
}

// normalizeDocument ignores line-ending and trailing whitespace differences
func normalizeDocument(doc string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return strings.TrimRight(doc, " \t\n")
}

func hashParts(parts ...string) string {
	data := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
