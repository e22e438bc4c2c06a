package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meysamhadeli/repodoc/embed_data"
	"github.com/meysamhadeli/repodoc/providers"
	"github.com/meysamhadeli/repodoc/providers/contracts"
	provider_models "github.com/meysamhadeli/repodoc/providers/models"
)

// Mode records how an artifact was produced.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeFallback    Mode = "fallback"
)

// Artifact is a synthesized document ready for persistence.
type Artifact struct {
	Title           string
	Content         string
	CacheKey        string
	TemplateVersion string
	Mode            Mode
	Degraded        bool
	UpdatedSections []string
	GeneratedAt     time.Time
}

// Generator synthesizes documents through one completion provider.
type Generator struct {
	Provider        contracts.CompletionProvider
	Policy          providers.RetryPolicy
	Model           string
	TemplateVersion string
}

// NewGenerator wires a document generator.
func NewGenerator(provider contracts.CompletionProvider, policy providers.RetryPolicy, model, templateVersion string) *Generator {
	return &Generator{
		Provider:        provider,
		Policy:          policy,
		Model:           model,
		TemplateVersion: templateVersion,
	}
}

// GenerateFull produces a complete document from scratch. Provider
// failure does not fail the run: the deterministic fallback document is
// returned instead, flagged as degraded.
func (g *Generator) GenerateFull(ctx context.Context, input Input) (*Artifact, error) {
	userPrompt, err := fullPrompt(input)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation prompt: %w", err)
	}

	response, err := g.invoke(ctx, userPrompt, "document_full")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.fallback(input), nil
	}

	doc := ParseSections(response.Content)
	if len(doc.Sections) == 0 {
		return g.fallback(input), nil
	}
	if doc.Title == "" {
		doc.Title = input.Snapshot.RepositoryID
	}

	return g.artifact(input, doc, ModeFull, SectionOrder, false), nil
}

// GenerateIncremental regenerates only the target sections and merges
// them onto the previous document. On provider failure the previous
// document is preserved with a degraded changelog entry appended, so a
// failed update never erases existing content.
func (g *Generator) GenerateIncremental(ctx context.Context, input Input, previousMarkdown string) (*Artifact, error) {
	previous := ParseSections(previousMarkdown)
	targets := InferTargetSections(input.Changes)

	userPrompt, err := incrementalPrompt(input, previous, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to build update prompt: %w", err)
	}

	response, err := g.invoke(ctx, userPrompt, "document_incremental")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		updated := Document{Sections: map[string]string{
			SectionChangelog: g.fallbackChangelogEntry(input),
		}}
		merged := MergeSections(previous, updated, []string{SectionChangelog})
		return g.artifact(input, merged, ModeIncremental, []string{SectionChangelog}, true), nil
	}

	updated := ParseSections(response.Content)
	merged := MergeSections(previous, updated, targets)
	return g.artifact(input, merged, ModeIncremental, targets, false), nil
}

func (g *Generator) invoke(ctx context.Context, userPrompt, templateID string) (*provider_models.CompletionResponse, error) {
	request := provider_models.CompletionRequest{
		Model:           g.Model,
		SystemPrompt:    string(embed_data.DocumentSystemPrompt),
		UserPrompt:      userPrompt,
		TemplateID:      templateID,
		TemplateVersion: g.TemplateVersion,
	}
	return providers.Invoke(ctx, g.Provider, request, g.Policy)
}

func (g *Generator) artifact(input Input, doc Document, mode Mode, updated []string, degraded bool) *Artifact {
	if doc.Title == "" {
		doc.Title = input.Snapshot.RepositoryID
	}
	return &Artifact{
		Title:           doc.Title,
		Content:         doc.Render(),
		CacheKey:        CacheKey(g.TemplateVersion, input.Snapshot, input.Profile.SelectedPaths()),
		TemplateVersion: g.TemplateVersion,
		Mode:            mode,
		Degraded:        degraded,
		UpdatedSections: updated,
		GeneratedAt:     time.Now().UTC(),
	}
}

// fallback assembles a document directly from the file summaries, with no
// provider involved. Deterministic for a given input.
func (g *Generator) fallback(input Input) *Artifact {
	doc := Document{
		Title:    input.Snapshot.RepositoryID,
		Sections: make(map[string]string),
	}

	languages := make([]string, 0, len(input.Profile.Languages))
	for lang := range input.Profile.Languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	doc.Sections[SectionOverview] = fmt.Sprintf(
		"Automatically assembled documentation for %s (%d files, languages: %s). Generated without model assistance; sections may lack narrative detail.",
		input.Snapshot.RepositoryID, input.Profile.TotalFiles, strings.Join(languages, ", "))

	var modules strings.Builder
	for i, ranked := range input.Profile.Selected {
		if i == maxPromptFiles {
			break
		}
		line := ranked.Path
		if summary, ok := input.Summaries[ranked.Path]; ok && summary.Text != "" {
			line = fmt.Sprintf("%s: %s", ranked.Path, summary.Text)
		}
		fmt.Fprintf(&modules, "- %s\n", line)
	}
	doc.Sections[SectionModules] = strings.TrimSpace(modules.String())

	doc.Sections[SectionChangelog] = g.fallbackChangelogEntry(input)

	return g.artifact(input, doc, ModeFallback, []string{SectionOverview, SectionModules, SectionChangelog}, true)
}

func (g *Generator) fallbackChangelogEntry(input Input) string {
	return fmt.Sprintf("- %s: %d added, %d modified, %d removed (generation degraded)",
		input.Snapshot.CommitRef, len(input.Changes.Added), len(input.Changes.Modified), len(input.Changes.Removed))
}
