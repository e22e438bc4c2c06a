// Package parser turns source files into symbol lists via a chain of
// strategies: grammar-backed parsing first, a line-based heuristic when the
// grammar fails, and a deterministic mock for test mode.
package parser

import (
	"encoding/json"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/embed_data"
	"github.com/meysamhadeli/repodoc/parser/contracts"
)

// TreeSitterStrategy is the primary parsing strategy. It runs the embedded
// tag queries against a grammar-backed syntax tree.
type TreeSitterStrategy struct{}

// NewTreeSitterStrategy returns the grammar-backed strategy.
func NewTreeSitterStrategy() contracts.Strategy {
	return &TreeSitterStrategy{}
}

func (s *TreeSitterStrategy) Name() string { return "tree-sitter" }

func (s *TreeSitterStrategy) Supports(language string) bool {
	_, _, ok := grammarFor(language)
	return ok
}

// grammarFor maps a detected language to its grammar and tag queries.
func grammarFor(language string) (*sitter.Language, []byte, bool) {
	switch language {
	case "go":
		return golang.GetLanguage(), embed_data.GoQuery, true
	case "python":
		return python.GetLanguage(), embed_data.PythonQuery, true
	case "java":
		return java.GetLanguage(), embed_data.JavaQuery, true
	case "javascript":
		return javascript.GetLanguage(), embed_data.JavascriptQuery, true
	case "typescript":
		return typescript.GetLanguage(), embed_data.TypescriptQuery, true
	case "csharp":
		return csharp.GetLanguage(), embed_data.CSharpQuery, true
	default:
		return nil, nil, false
	}
}

func (s *TreeSitterStrategy) Parse(path, language string, sourceCode []byte) (*models.ParseResult, error) {
	lang, queryData, ok := grammarFor(language)
	if !ok {
		return nil, fmt.Errorf("no grammar for language %q", language)
	}

	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree := p.Parse(nil, sourceCode)
	if tree == nil || tree.RootNode().HasError() {
		return nil, fmt.Errorf("syntax tree for %s contains errors", path)
	}

	queries := make(map[string]string)
	if err := json.Unmarshal(queryData, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse %s tag queries: %w", language, err)
	}

	// Iterate tags in sorted order so symbol output is deterministic.
	tags := make([]string, 0, len(queries))
	for tag := range queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var symbols []models.Symbol
	for _, tag := range tags {
		query, err := sitter.NewQuery([]byte(queries[tag]), lang)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s query %q: %w", language, tag, err)
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, cap := range match.Captures {
				symbols = append(symbols, models.Symbol{
					Kind: tag,
					Name: cap.Node.Content(sourceCode),
				})
			}
		}
	}

	return &models.ParseResult{
		Path:       path,
		Strategy:   s.Name(),
		Confidence: models.ConfidenceFull,
		Symbols:    symbols,
	}, nil
}
