package parser

import (
	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/parser/contracts"
)

// Selector walks an ordered strategy chain and returns the first result.
// The chain must end with a strategy that cannot fail, so Parse always
// yields a result.
type Selector struct {
	strategies []contracts.Strategy
}

// NewSelector builds a selector over the given chain, tried in order.
func NewSelector(strategies ...contracts.Strategy) *Selector {
	return &Selector{strategies: strategies}
}

// NewDefaultSelector wires the production chain: grammar-backed parsing
// with the heuristic fallback behind it.
func NewDefaultSelector() *Selector {
	return NewSelector(NewTreeSitterStrategy(), NewHeuristicStrategy())
}

// NewTestSelector wires only the deterministic mock strategy.
func NewTestSelector() *Selector {
	return NewSelector(NewMockStrategy())
}

// Parse tries each strategy that supports the language and returns the
// first successful result. When every strategy fails or none applies it
// returns an empty degraded result rather than an error, keeping the
// pipeline total.
func (s *Selector) Parse(file models.FileRecord) *models.ParseResult {
	for _, strategy := range s.strategies {
		if !strategy.Supports(file.Language) {
			continue
		}
		result, err := strategy.Parse(file.Path, file.Language, file.Content)
		if err == nil && result != nil {
			return result
		}
	}

	return &models.ParseResult{
		Path:       file.Path,
		Strategy:   "none",
		Confidence: models.ConfidenceDegraded,
	}
}
