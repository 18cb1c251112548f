package entry

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey returns the canonical form of an entry key.
//
// Keys are NFC-normalized and trimmed so that a key written on one code path
// and looked up on another compare equal byte for byte in SQLite.
func NormalizeKey(key string) string {
	return norm.NFC.String(strings.TrimSpace(key))
}
