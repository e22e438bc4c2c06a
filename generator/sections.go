// Package generator synthesizes the repository document from file
// summaries: full regeneration, section-scoped incremental updates and the
// deterministic fallback used when generation fails.
package generator

import (
	"fmt"
	"strings"
)

// The document is a fixed sequence of H2 sections. Incremental updates
// replace whole sections; unknown section titles in generated output are
// dropped.
const (
	SectionOverview     = "Project Overview"
	SectionArchitecture = "Architecture"
	SectionDiagram      = "Architecture Diagram"
	SectionModules      = "Key Modules"
	SectionChangelog    = "Changelog"
)

// SectionOrder is the canonical section sequence of every document.
var SectionOrder = []string{
	SectionOverview,
	SectionArchitecture,
	SectionDiagram,
	SectionModules,
	SectionChangelog,
}

var knownSections = func() map[string]bool {
	m := make(map[string]bool, len(SectionOrder))
	for _, s := range SectionOrder {
		m[s] = true
	}
	return m
}()

// Document is a parsed markdown document: its H1 title and section bodies
// keyed by H2 title.
type Document struct {
	Title    string
	Sections map[string]string
}

// ParseSections splits markdown into the document's H2 sections. Content
// under unknown H2 titles is ignored; the title comes from the first H1
// heading.
func ParseSections(markdown string) Document {
	doc := Document{Sections: make(map[string]string)}

	var current string
	var body strings.Builder
	flush := func() {
		if current != "" && knownSections[current] {
			doc.Sections[current] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		case strings.HasPrefix(trimmed, "# ") && doc.Title == "":
			doc.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		default:
			if current != "" {
				body.WriteString(line)
				body.WriteString("\n")
			}
		}
	}
	flush()

	return doc
}

// Render serializes the document in canonical section order, skipping
// sections with no content.
func (d Document) Render() string {
	var b strings.Builder

	title := d.Title
	if title == "" {
		title = "Documentation"
	}
	fmt.Fprintf(&b, "# %s\n", title)

	for _, section := range SectionOrder {
		content, ok := d.Sections[section]
		if !ok || content == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", section, content)
	}

	return b.String()
}

// MergeSections overlays updated sections onto a previous document. Only
// the named target sections are replaced; the changelog is appended to
// rather than overwritten.
func MergeSections(previous Document, updated Document, targets []string) Document {
	merged := Document{
		Title:    previous.Title,
		Sections: make(map[string]string, len(SectionOrder)),
	}
	if updated.Title != "" {
		merged.Title = updated.Title
	}
	for section, content := range previous.Sections {
		merged.Sections[section] = content
	}

	for _, section := range targets {
		content, ok := updated.Sections[section]
		if !ok {
			continue
		}
		if section == SectionChangelog {
			merged.Sections[section] = MergeChangelog(previous.Sections[section], content)
			continue
		}
		merged.Sections[section] = content
	}

	return merged
}

// MergeChangelog prepends new entries to the existing changelog, keeping
// history append-only with newest entries first.
func MergeChangelog(existing, incoming string) string {
	existing = strings.TrimSpace(existing)
	incoming = strings.TrimSpace(incoming)
	switch {
	case existing == "":
		return incoming
	case incoming == "":
		return existing
	default:
		return incoming + "\n\n" + existing
	}
}
