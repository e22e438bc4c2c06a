package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytes_IsStableAndContentSensitive(t *testing.T) {
	first := HashBytes([]byte("package main"))
	assert.Equal(t, first, HashBytes([]byte("package main")))
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, HashBytes([]byte("package main\n")))
}

func TestHashPairs_IgnoresMapOrder(t *testing.T) {
	a := HashPairs("v4", map[string]string{"a.go": "h1", "b.go": "h2", "c.go": "h3"})
	b := HashPairs("v4", map[string]string{"c.go": "h3", "a.go": "h1", "b.go": "h2"})
	assert.Equal(t, a, b)
}

func TestHashPairs_PrefixChangesDigest(t *testing.T) {
	pairs := map[string]string{"a.go": "h1"}
	assert.NotEqual(t, HashPairs("v4", pairs), HashPairs("v5", pairs))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("cmd/root.go"))
	assert.Equal(t, "python", DetectLanguage("app/main.py"))
	assert.Equal(t, "typescript", DetectLanguage("web/index.ts"))
	assert.Equal(t, "", DetectLanguage("LICENSE"))
}

func TestIsDocumentableLanguage(t *testing.T) {
	assert.True(t, IsDocumentableLanguage("go"))
	assert.False(t, IsDocumentableLanguage("markdown"))
	assert.False(t, IsDocumentableLanguage(""))
}

func TestIsProbablyBinary(t *testing.T) {
	assert.True(t, IsProbablyBinary([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}))
	assert.False(t, IsProbablyBinary([]byte("plain text content\n")))
}

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored("node_modules/react/index.js"))
	assert.True(t, IsDefaultIgnored(".git/HEAD"))
	assert.False(t, IsDefaultIgnored("internal/server.go"))
}
