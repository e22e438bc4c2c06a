package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns are path components that never contribute to
// documentation: VCS metadata, build output, caches, binaries and media.
var defaultIgnorePatterns = []string{
	".git",
	".svn",
	".idea",
	".vscode",
	".cache",
	"node_modules",
	"vendor",
	"bin",
	"obj",
	"dist",
	"out",
	"target",
	"__pycache__",
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.log",
	"*.bak",
	"*.lock",
	"*.sum",
	"*.min.js",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.ico",
	"*.pdf",
	"*.zip",
	"*.tar",
	"*.gz",
	"*.mp3",
	"*.mp4",
	"*.wav",
	"*.avi",
	"*.mov",
	"*.drawio",
	"*.excalidraw",
}

// GetIgnorePatterns reads the patterns from a .repodoc-ignore file in root.
// A missing file yields an empty pattern list.
func GetIgnorePatterns(root string) ([]string, error) {
	ignorePath := filepath.Join(root, ".repodoc-ignore")

	content, err := os.ReadFile(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read .repodoc-ignore: %w", err)
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsDefaultIgnored checks a slash-separated relative path against the
// built-in ignore list. Each path component is matched independently.
func IsDefaultIgnored(path string) bool {
	for _, part := range strings.Split(path, "/") {
		part = strings.ToLower(part)
		for _, pattern := range defaultIgnorePatterns {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// IsIgnored checks a relative path against user-supplied ignore patterns.
func IsIgnored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		// Patterns like "docs/" ignore the whole directory.
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}

// IsProbablyBinary sniffs the first bytes of content for NUL characters,
// which is enough to keep compiled objects and images out of the snapshot
// even when their extension is unknown.
func IsProbablyBinary(content []byte) bool {
	limit := len(content)
	if limit > 8000 {
		limit = 8000
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
