package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

const sampleDoc = `# Payments Service

## Project Overview

Handles card payments.

## Key Modules

- api/charge.go: charge endpoint

## Changelog

- abc123: initial documentation
`

func TestParseSections_ExtractsTitleAndKnownSections(t *testing.T) {
	doc := ParseSections(sampleDoc)

	assert.Equal(t, "Payments Service", doc.Title)
	assert.Equal(t, "Handles card payments.", doc.Sections[SectionOverview])
	assert.Equal(t, "- api/charge.go: charge endpoint", doc.Sections[SectionModules])
	assert.Equal(t, "- abc123: initial documentation", doc.Sections[SectionChangelog])
}

func TestParseSections_DropsUnknownSections(t *testing.T) {
	doc := ParseSections("# T\n\n## Marketing Notes\n\nbuy now\n\n## Changelog\n\n- x\n")

	assert.NotContains(t, doc.Sections, "Marketing Notes")
	assert.Equal(t, "- x", doc.Sections[SectionChangelog])
}

func TestRender_UsesCanonicalSectionOrder(t *testing.T) {
	doc := Document{
		Title: "T",
		Sections: map[string]string{
			SectionChangelog: "- c",
			SectionOverview:  "o",
			SectionModules:   "m",
		},
	}

	rendered := doc.Render()

	overviewAt := strings.Index(rendered, "## "+SectionOverview)
	modulesAt := strings.Index(rendered, "## "+SectionModules)
	changelogAt := strings.Index(rendered, "## "+SectionChangelog)
	assert.True(t, overviewAt < modulesAt && modulesAt < changelogAt)
	assert.True(t, strings.HasPrefix(rendered, "# T\n"))
}

func TestParseThenRender_IsStable(t *testing.T) {
	first := ParseSections(sampleDoc).Render()
	second := ParseSections(first).Render()

	assert.Equal(t, first, second)
}

func TestMergeSections_ReplacesOnlyTargets(t *testing.T) {
	previous := ParseSections(sampleDoc)
	updated := Document{Sections: map[string]string{
		SectionModules:  "- api/charge.go: charge endpoint\n- api/refund.go: refund endpoint",
		SectionOverview: "should not be applied",
	}}

	merged := MergeSections(previous, updated, []string{SectionModules})

	assert.Equal(t, "Handles card payments.", merged.Sections[SectionOverview])
	assert.Contains(t, merged.Sections[SectionModules], "refund.go")
}

func TestMergeSections_ChangelogIsAppendOnly(t *testing.T) {
	previous := ParseSections(sampleDoc)
	updated := Document{Sections: map[string]string{
		SectionChangelog: "- def456: added refunds",
	}}

	merged := MergeSections(previous, updated, []string{SectionChangelog})

	changelog := merged.Sections[SectionChangelog]
	assert.Contains(t, changelog, "abc123: initial documentation")
	assert.Contains(t, changelog, "def456: added refunds")
	assert.Less(t, strings.Index(changelog, "def456"), strings.Index(changelog, "abc123"),
		"newest entries come first")
}

func TestInferTargetSections(t *testing.T) {
	cases := []struct {
		name    string
		changes models.ChangeSet
		want    []string
	}{
		{
			name:    "entry point change touches overview",
			changes: models.ChangeSet{Modified: []string{"main.go"}},
			want:    []string{SectionOverview, SectionChangelog},
		},
		{
			name:    "router change touches architecture and modules",
			changes: models.ChangeSet{Modified: []string{"api/router.go"}},
			want:    []string{SectionArchitecture, SectionDiagram, SectionModules, SectionChangelog},
		},
		{
			name:    "service change touches modules",
			changes: models.ChangeSet{Added: []string{"internal/billing/service.go"}},
			want:    []string{SectionModules, SectionChangelog},
		},
		{
			name:    "removal alone still refreshes modules",
			changes: models.ChangeSet{Removed: []string{"pkg/legacy.go"}},
			want:    []string{SectionModules, SectionChangelog},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferTargetSections(tc.changes))
		})
	}
}
