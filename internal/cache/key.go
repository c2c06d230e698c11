package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyLength is the truncation width of the derived key in hex characters.
// 32 hex chars = 128 bits; collision probability is negligible at the scale
// of this service, so no collision handling is performed.
//
// The "|" delimiter is not escaped, so a literal "|" inside the prompt or
// name shifts the field boundary. The cache is permanent and keys must keep
// matching entries already written in this format, so the format is frozen.
const keyLength = 32

// DeriveKey возвращает детерминированный отпечаток запроса для кэша.
// Two requests that differ only in incidental whitespace or letter case
// map to the same key.
func DeriveKey(prompt, childName, language string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
	raw := normalized + "|" + strings.ToLower(strings.TrimSpace(childName)) + "|" + language
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:keyLength]
}
