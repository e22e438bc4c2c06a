package parser

import (
	"regexp"
	"strings"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/parser/contracts"
)

// heuristicPattern pairs a symbol kind with the line pattern that declares
// it. The capture group is the symbol name.
type heuristicPattern struct {
	kind    string
	pattern *regexp.Regexp
}

// heuristicPatterns covers declaration shapes shared across the supported
// languages. It trades precision for the guarantee of never failing.
var heuristicPatterns = []heuristicPattern{
	{"function", regexp.MustCompile(`^\s*(?:pub\s+|export\s+|async\s+|static\s+)*(?:func|fn|def|function)\s+(\w+)`)},
	{"class", regexp.MustCompile(`^\s*(?:pub\s+|export\s+|public\s+|abstract\s+)*class\s+(\w+)`)},
	{"struct", regexp.MustCompile(`^\s*(?:pub\s+)?(?:type\s+(\w+)\s+struct|struct\s+(\w+))`)},
	{"interface", regexp.MustCompile(`^\s*(?:pub\s+|export\s+|public\s+)*(?:type\s+(\w+)\s+interface|interface\s+(\w+))`)},
	{"enum", regexp.MustCompile(`^\s*(?:pub\s+|export\s+|public\s+)*enum\s+(\w+)`)},
	{"trait", regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+(\w+)`)},
	{"const", regexp.MustCompile(`^\s*(?:pub\s+|export\s+|public\s+static\s+final\s+)*const\s+(\w+)`)},
}

// HeuristicStrategy is the fallback strategy: regex extraction over lines.
// It supports every language and never returns an error, so it terminates
// the strategy chain.
type HeuristicStrategy struct{}

// NewHeuristicStrategy returns the line-based fallback strategy.
func NewHeuristicStrategy() contracts.Strategy {
	return &HeuristicStrategy{}
}

func (s *HeuristicStrategy) Name() string { return "heuristic" }

func (s *HeuristicStrategy) Supports(string) bool { return true }

func (s *HeuristicStrategy) Parse(path, language string, sourceCode []byte) (*models.ParseResult, error) {
	var symbols []models.Symbol

	for _, line := range strings.Split(string(sourceCode), "\n") {
		for _, hp := range heuristicPatterns {
			matches := hp.pattern.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			name := firstNonEmpty(matches[1:])
			if name == "" {
				continue
			}
			symbols = append(symbols, models.Symbol{Kind: hp.kind, Name: name})
			break
		}
	}

	return &models.ParseResult{
		Path:       path,
		Strategy:   s.Name(),
		Confidence: models.ConfidenceDegraded,
		Symbols:    symbols,
	}, nil
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}
