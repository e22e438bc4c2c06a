package generator

import (
	"strings"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

// InferTargetSections maps a change set to the document sections an
// incremental update must regenerate. The changelog is always a target;
// removals alone still need the modules list and changelog refreshed.
func InferTargetSections(changes models.ChangeSet) []string {
	targets := map[string]bool{SectionChangelog: true}

	paths := changes.NeedsRegeneration()
	paths = append(paths, changes.Removed...)

	for _, path := range paths {
		p := strings.ToLower(path)
		switch {
		case strings.Contains(p, "router") || strings.Contains(p, "endpoint") || strings.Contains(p, "controller"):
			targets[SectionArchitecture] = true
			targets[SectionDiagram] = true
			targets[SectionModules] = true
		case strings.Contains(p, "model") || strings.Contains(p, "schema") || strings.Contains(p, "entity") ||
			strings.Contains(p, "service") || strings.Contains(p, "handler"):
			targets[SectionModules] = true
		case strings.Contains(p, "main") || strings.Contains(p, "app") || strings.Contains(p, "config"):
			targets[SectionOverview] = true
		default:
			targets[SectionModules] = true
		}
	}
	if len(changes.Removed) > 0 {
		targets[SectionModules] = true
	}

	// Emit in canonical order so prompts and merges are deterministic.
	var ordered []string
	for _, section := range SectionOrder {
		if targets[section] {
			ordered = append(ordered, section)
		}
	}
	return ordered
}
