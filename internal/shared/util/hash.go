package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex digest of b, used to identify uploads in logs.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
