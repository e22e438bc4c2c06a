package contracts

import "github.com/meysamhadeli/repodoc/analyzer/models"

// Strategy extracts code structure from a single file. Implementations
// return an error only when they could not handle the file at all; partial
// extraction returns a result with whatever symbols were found.
type Strategy interface {
	// Name identifies the strategy in parse results and reports.
	Name() string
	// Supports reports whether this strategy can attempt the language.
	Supports(language string) bool
	// Parse extracts symbols from sourceCode.
	Parse(path, language string, sourceCode []byte) (*models.ParseResult, error)
}
