package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

// maxPromptFiles caps how many files enter the generation payload. Files
// are ranked by significance first, so the cap drops the least relevant
// ones.
const maxPromptFiles = 40

// filePayload is the compact per-file record embedded in generation
// prompts. Short keys keep the payload small: p=path, l=language,
// pu=purpose, sy=symbol count, r=role.
type filePayload struct {
	Path     string `json:"p"`
	Language string `json:"l"`
	Purpose  string `json:"pu"`
	Symbols  int    `json:"sy,omitempty"`
	Role     string `json:"r"`
}

// Input bundles everything a generation call reads.
type Input struct {
	Snapshot  *models.RepositorySnapshot
	Profile   models.RepoProfile
	Summaries map[string]models.FileSummary
	Parsed    map[string]*models.ParseResult
	Changes   models.ChangeSet
}

// buildPayload serializes the top-ranked files, restricted to paths in
// only when only is non-nil.
func buildPayload(input Input, only map[string]bool) ([]byte, error) {
	var files []filePayload
	for _, ranked := range input.Profile.Selected {
		if only != nil && !only[ranked.Path] {
			continue
		}
		if len(files) == maxPromptFiles {
			break
		}

		payload := filePayload{
			Path:     ranked.Path,
			Language: ranked.Language,
			Role:     ranked.Role,
		}
		if summary, ok := input.Summaries[ranked.Path]; ok {
			payload.Purpose = summary.Text
		}
		if parsed, ok := input.Parsed[ranked.Path]; ok {
			payload.Symbols = len(parsed.Symbols)
		}
		files = append(files, payload)
	}
	return json.Marshal(files)
}

// fullPrompt asks for a complete document covering every section.
func fullPrompt(input Input) (string, error) {
	payload, err := buildPayload(input, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate the complete documentation for repository %q at commit %s.\n\n",
		input.Snapshot.RepositoryID, input.Snapshot.CommitRef)
	b.WriteString("Produce a markdown document with exactly these sections, in order:\n")
	for _, section := range SectionOrder {
		fmt.Fprintf(&b, "## %s\n", section)
	}
	fmt.Fprintf(&b, "\nStart with a single H1 title line. Render the %s section as a mermaid code block.\n", SectionDiagram)
	fmt.Fprintf(&b, "In %s, add one entry for commit %s describing the current state.\n\n", SectionChangelog, input.Snapshot.CommitRef)
	fmt.Fprintf(&b, "File data (JSON):\n%s\n", payload)

	return b.String(), nil
}

// incrementalPrompt asks only for the target sections, scoped to the
// changed files, with the previous section text as context.
func incrementalPrompt(input Input, previous Document, targets []string) (string, error) {
	changed := make(map[string]bool)
	for _, path := range input.Changes.NeedsRegeneration() {
		changed[path] = true
	}
	payload, err := buildPayload(input, changed)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Update the documentation for repository %q at commit %s.\n\n",
		input.Snapshot.RepositoryID, input.Snapshot.CommitRef)
	b.WriteString("Regenerate only these sections, emitting each as an H2 heading with its new body:\n")
	for _, section := range targets {
		fmt.Fprintf(&b, "## %s\n", section)
	}
	fmt.Fprintf(&b, "\nFor %s emit only the new entries for commit %s; existing history is preserved elsewhere.\n", SectionChangelog, input.Snapshot.CommitRef)
	if len(input.Changes.Removed) > 0 {
		fmt.Fprintf(&b, "Removed files: %s.\n", strings.Join(input.Changes.Removed, ", "))
	}

	b.WriteString("\nCurrent section content:\n")
	for _, section := range targets {
		if content, ok := previous.Sections[section]; ok && content != "" {
			fmt.Fprintf(&b, "## %s\n%s\n\n", section, content)
		}
	}

	fmt.Fprintf(&b, "Changed file data (JSON):\n%s\n", payload)

	return b.String(), nil
}
