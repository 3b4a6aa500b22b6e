package util

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// HashString returns the MD5 hash of a string, normalized to lower case.
// Used to derive stable keys for records that lack a source identifier,
// e.g. comments without an explicit key attribute.
func HashString(input string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(strings.ToLower(input))))
	return hex.EncodeToString(sum[:])
}
