package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashContent returns the hex-encoded SHA-256 digest of the given content
// body. The digest is stored alongside each entity and used by the
// duplicate-content guard.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IsValidAddress reports whether s looks like an EVM address:
// "0x" followed by 40 hex characters.
func IsValidAddress(s string) bool {
	return isHexString(s, 40)
}

// IsValidTransactionHash reports whether s looks like an EVM transaction
// hash: "0x" followed by 64 hex characters.
func IsValidTransactionHash(s string) bool {
	return isHexString(s, 64)
}

func isHexString(s string, hexLen int) bool {
	if len(s) != hexLen+2 {
		return false
	}
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
