package utils

import (
	"path/filepath"
	"strings"
)

// languageByExtension maps file extensions to language tags understood by the
// parser strategies.
var languageByExtension = map[string]string{
	".cs":   "csharp",
	".go":   "go",
	".py":   "python",
	".java": "java",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".zig":  "zig",
	".rb":   "ruby",
	".php":  "php",
	".kt":   "kotlin",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".sh":   "shell",
	".md":   "markdown",
	".yml":  "yaml",
	".yaml": "yaml",
	".json": "json",
	".sql":  "sql",
}

// DetectLanguage returns the language tag for a file path, or "" when the
// extension is unknown.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return languageByExtension[ext]
}

// IsDocumentableLanguage reports whether files of this language carry enough
// structure to be worth summarizing at all. Markup and data formats are
// excluded from per-file summarization but still count toward the snapshot.
func IsDocumentableLanguage(language string) bool {
	switch language {
	case "", "markdown", "yaml", "json":
		return false
	default:
		return true
	}
}
