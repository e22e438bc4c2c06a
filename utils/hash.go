package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// HashBytes returns the xxh3-128 hex digest of content. Used as the content
// identity of a file: two files with equal digests are treated as identical
// regardless of path.
func HashBytes(content []byte) string {
	h := xxh3.Hash128(content)
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// HashString returns the xxh3-128 hex digest of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashPairs builds a deterministic digest over a set of key/value pairs.
// Pairs are sorted by key before hashing, so map iteration order never leaks
// into the result.
func HashPairs(prefix string, pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, k := range keys {
		sb.WriteString("\n")
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(pairs[k])
	}
	return HashString(sb.String())
}
