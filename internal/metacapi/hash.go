package metacapi

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashValue hashes a value the way Meta's Conversions API requires:
// lowercased and trimmed before taking the sha256 hex digest. The hash is
// deterministic so Meta can match it against its own hashed records.
func HashValue(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:])
}
