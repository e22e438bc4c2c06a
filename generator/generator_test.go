package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/providers"
	"github.com/meysamhadeli/repodoc/providers/mock"
	provider_models "github.com/meysamhadeli/repodoc/providers/models"
)

func fastPolicy() providers.RetryPolicy {
	return providers.RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func sampleInput(commit string) Input {
	snapshot := models.NewRepositorySnapshot("acme/payments", commit, []models.FileRecord{
		{Path: "api/router.go", Language: "go", Hash: "h1"},
		{Path: "main.go", Language: "go", Hash: "h2"},
	})
	return Input{
		Snapshot: snapshot,
		Profile: models.RepoProfile{
			Selected: []models.RankedFile{
				{Path: "main.go", Language: "go", Score: 4, Role: "entry"},
				{Path: "api/router.go", Language: "go", Score: 3, Role: "api"},
			},
			Languages:  map[string]int{"go": 2},
			TotalFiles: 2,
		},
		Summaries: map[string]models.FileSummary{
			"main.go":       {Path: "main.go", Text: "Process entry point."},
			"api/router.go": {Path: "api/router.go", Text: "HTTP routing."},
		},
		Parsed: map[string]*models.ParseResult{
			"main.go": {Path: "main.go", Symbols: []models.Symbol{{Kind: "function", Name: "main"}}},
		},
		Changes: models.ChangeSet{Added: []string{"main.go", "api/router.go"}},
	}
}

func TestGenerateFull_ProducesAllSections(t *testing.T) {
	g := NewGenerator(mock.NewMockProvider(), fastPolicy(), "mock", "v4")

	artifact, err := g.GenerateFull(context.Background(), sampleInput("abc123"))

	assert.NoError(t, err)
	assert.Equal(t, ModeFull, artifact.Mode)
	assert.False(t, artifact.Degraded)
	parsed := ParseSections(artifact.Content)
	for _, section := range SectionOrder {
		assert.Contains(t, parsed.Sections, section)
	}
	assert.NotEmpty(t, artifact.Title)
	assert.NotEmpty(t, artifact.CacheKey)
}

func TestGenerateFull_FallsBackWhenProviderFails(t *testing.T) {
	provider := &mock.MockProvider{Script: []*provider_models.CompletionError{
		{Kind: provider_models.ErrInvalid, Message: "bad request"},
	}}
	g := NewGenerator(provider, fastPolicy(), "mock", "v4")

	artifact, err := g.GenerateFull(context.Background(), sampleInput("abc123"))

	assert.NoError(t, err)
	assert.Equal(t, ModeFallback, artifact.Mode)
	assert.True(t, artifact.Degraded)
	assert.Contains(t, artifact.Content, "main.go")
	assert.Contains(t, artifact.Content, "## "+SectionChangelog)
}

func TestGenerateIncremental_PreservesUntouchedSections(t *testing.T) {
	g := NewGenerator(mock.NewMockProvider(), fastPolicy(), "mock", "v4")
	previous := `# Payments

## Project Overview

Original overview text.

## Key Modules

- old module

## Changelog

- abc123: first entry
`
	input := sampleInput("def456")
	input.Changes = models.ChangeSet{
		Modified:  []string{"api/router.go"},
		Unchanged: []string{"main.go"},
	}

	artifact, err := g.GenerateIncremental(context.Background(), input, previous)

	assert.NoError(t, err)
	assert.Equal(t, ModeIncremental, artifact.Mode)
	doc := ParseSections(artifact.Content)
	assert.Equal(t, "Original overview text.", doc.Sections[SectionOverview],
		"overview was not a target and must survive")
	assert.Contains(t, doc.Sections[SectionChangelog], "abc123: first entry")
	assert.Contains(t, doc.Sections[SectionModules], "updated mock module")
}

func TestGenerateIncremental_FailurePreservesPreviousDocument(t *testing.T) {
	provider := &mock.MockProvider{Script: []*provider_models.CompletionError{
		{Kind: provider_models.ErrQuota, StatusCode: 429, Message: "rate limited"},
	}}
	g := NewGenerator(provider, fastPolicy(), "mock", "v4")
	previous := "# P\n\n## Project Overview\n\nKeep me.\n\n## Changelog\n\n- abc123: old\n"
	input := sampleInput("def456")
	input.Changes = models.ChangeSet{Modified: []string{"main.go"}}

	artifact, err := g.GenerateIncremental(context.Background(), input, previous)

	assert.NoError(t, err)
	assert.True(t, artifact.Degraded)
	doc := ParseSections(artifact.Content)
	assert.Equal(t, "Keep me.", doc.Sections[SectionOverview])
	assert.Contains(t, doc.Sections[SectionChangelog], "abc123: old")
	assert.Contains(t, doc.Sections[SectionChangelog], "def456")
}

func TestCacheKey_DependsOnContentAndTemplateVersion(t *testing.T) {
	input := sampleInput("abc123")
	paths := input.Profile.SelectedPaths()

	base := CacheKey("v4", input.Snapshot, paths)
	assert.Equal(t, base, CacheKey("v4", input.Snapshot, paths), "deterministic")

	otherVersion := CacheKey("v5", input.Snapshot, paths)
	assert.NotEqual(t, base, otherVersion)

	changed := models.NewRepositorySnapshot("acme/payments", "abc123", []models.FileRecord{
		{Path: "api/router.go", Language: "go", Hash: "h1-changed"},
		{Path: "main.go", Language: "go", Hash: "h2"},
	})
	assert.NotEqual(t, base, CacheKey("v4", changed, paths))
}

func TestGenerateFull_SameInputsYieldSameCacheKey(t *testing.T) {
	g := NewGenerator(mock.NewMockProvider(), fastPolicy(), "mock", "v4")

	first, err := g.GenerateFull(context.Background(), sampleInput("abc123"))
	assert.NoError(t, err)
	second, err := g.GenerateFull(context.Background(), sampleInput("abc123"))
	assert.NoError(t, err)

	assert.Equal(t, first.CacheKey, second.CacheKey)
}
