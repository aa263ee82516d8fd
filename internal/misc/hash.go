package misc

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SumSHA256 returns the hex SHA-256 of value followed by key. value is not modified.
func SumSHA256(value []byte, key string) string {
	h := sha256.New()
	h.Write(value)
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySHA256 reports whether sum is the keyed hash of value, ignoring hex case.
func VerifySHA256(value []byte, key, sum string) bool {
	want := SumSHA256(value, key)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(sum)))) == 1
}
