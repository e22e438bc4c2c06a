// Package summarizer produces the per-file natural language summaries the
// document generator consumes. A summary is either generated by the
// completion provider or, after retries are exhausted, a degraded stub
// flagged for follow-up.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/embed_data"
	"github.com/meysamhadeli/repodoc/providers"
	"github.com/meysamhadeli/repodoc/providers/contracts"
	provider_models "github.com/meysamhadeli/repodoc/providers/models"
)

// maxExcerptBytes bounds how much raw source is shown to the model per
// file.
const maxExcerptBytes = 6 * 1024

// maxSymbolLines bounds the symbol list in the prompt.
const maxSymbolLines = 60

// Summarizer turns parsed files into summaries through one provider and
// one retry policy.
type Summarizer struct {
	Provider        contracts.CompletionProvider
	Policy          providers.RetryPolicy
	Model           string
	TemplateVersion string
}

// NewSummarizer wires a summarizer for the given provider and template
// version.
func NewSummarizer(provider contracts.CompletionProvider, policy providers.RetryPolicy, model, templateVersion string) *Summarizer {
	return &Summarizer{
		Provider:        provider,
		Policy:          policy,
		Model:           model,
		TemplateVersion: templateVersion,
	}
}

// Summarize generates the summary for one file. It never returns an error
// for provider failures: once retries are exhausted it returns a degraded
// stub built from the parse result, so one bad file cannot sink a run.
func (s *Summarizer) Summarize(ctx context.Context, file models.FileRecord, parsed *models.ParseResult) models.FileSummary {
	request := provider_models.CompletionRequest{
		Model:           s.Model,
		SystemPrompt:    string(embed_data.FileSummaryPrompt),
		UserPrompt:      buildUserPrompt(file, parsed),
		TemplateID:      "file_summary",
		TemplateVersion: s.TemplateVersion,
	}

	response, err := providers.Invoke(ctx, s.Provider, request, s.Policy)
	if err != nil {
		return degradedSummary(file, parsed, err, s.TemplateVersion)
	}

	return models.FileSummary{
		Path:            file.Path,
		Hash:            file.Hash,
		Text:            strings.TrimSpace(response.Content),
		TemplateVersion: s.TemplateVersion,
		GeneratedAt:     time.Now().UTC(),
	}
}

func buildUserPrompt(file models.FileRecord, parsed *models.ParseResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\nLanguage: %s\n", file.Path, file.Language)
	if parsed != nil && len(parsed.Symbols) > 0 {
		b.WriteString("\nSymbols:\n")
		for i, symbol := range parsed.Symbols {
			if i == maxSymbolLines {
				fmt.Fprintf(&b, "... and %d more\n", len(parsed.Symbols)-maxSymbolLines)
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", symbol.Kind, symbol.Name)
		}
	}

	excerpt := file.Content
	if len(excerpt) > maxExcerptBytes {
		excerpt = excerpt[:maxExcerptBytes]
	}
	fmt.Fprintf(&b, "\nCode excerpt:\n%s\n", excerpt)

	return b.String()
}

// degradedSummary is the stub used when generation failed. Its text is
// deterministic so repeated degraded runs stay idempotent.
func degradedSummary(file models.FileRecord, parsed *models.ParseResult, cause error, templateVersion string) models.FileSummary {
	var symbols []string
	if parsed != nil {
		for _, symbol := range parsed.Symbols {
			symbols = append(symbols, symbol.Name)
			if len(symbols) == 8 {
				break
			}
		}
	}

	text := fmt.Sprintf("Summary unavailable for %s.", file.Path)
	if len(symbols) > 0 {
		text = fmt.Sprintf("Summary unavailable for %s. Declares: %s.", file.Path, strings.Join(symbols, ", "))
	}

	return models.FileSummary{
		Path:            file.Path,
		Hash:            file.Hash,
		Text:            text,
		TemplateVersion: templateVersion,
		Degraded:        true,
		Reason:          cause.Error(),
		GeneratedAt:     time.Now().UTC(),
	}
}
