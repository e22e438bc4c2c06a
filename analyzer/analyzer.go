package analyzer

import (
	"sort"
	"strings"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/utils"
)

// Analyze derives the structural profile of a snapshot: which files are
// worth documenting and how significant each is. Significance bounds the
// cost of full-repository regeneration, so higher-ranked files survive the
// prompt file cap. Pure function of its inputs; changeFrequency may be nil.
func Analyze(snapshot *models.RepositorySnapshot, changeFrequency map[string]int) models.RepoProfile {
	profile := models.RepoProfile{
		Languages:  make(map[string]int),
		TotalFiles: len(snapshot.Files),
	}

	for _, f := range snapshot.Files {
		if f.Language != "" {
			profile.Languages[f.Language]++
		}
		if !utils.IsDocumentableLanguage(f.Language) {
			continue
		}
		profile.Selected = append(profile.Selected, models.RankedFile{
			Path:     f.Path,
			Language: f.Language,
			Score:    significance(f, changeFrequency[f.Path]),
			Role:     inferRole(f.Path),
		})
	}

	sort.SliceStable(profile.Selected, func(i, j int) bool {
		if profile.Selected[i].Score != profile.Selected[j].Score {
			return profile.Selected[i].Score > profile.Selected[j].Score
		}
		return profile.Selected[i].Path < profile.Selected[j].Path
	})

	return profile
}

// significance combines size, path centrality and prior change frequency
// into a single ranking score.
func significance(f models.FileRecord, priorChanges int) float64 {
	score := 0.0

	// Larger files carry more structure, with diminishing returns.
	switch {
	case f.Size > 32*1024:
		score += 2.0
	case f.Size > 8*1024:
		score += 1.5
	case f.Size > 1024:
		score += 1.0
	default:
		score += 0.3
	}

	// Shallow files are more central than deeply nested ones.
	depth := strings.Count(f.Path, "/")
	switch {
	case depth == 0:
		score += 2.0
	case depth == 1:
		score += 1.0
	case depth == 2:
		score += 0.5
	}

	base := strings.ToLower(f.Path)
	if strings.Contains(base, "main") || strings.Contains(base, "app") {
		score += 1.5
	}
	if strings.Contains(base, "test") || strings.Contains(base, "spec") {
		score -= 1.0
	}

	// Frequently changed files are the ones readers ask about.
	if priorChanges > 0 {
		score += float64(priorChanges)
		if score > 10 {
			score = 10
		}
	}

	return score
}

// inferRole classifies a file by its path for the generator's compact
// payload.
func inferRole(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "test") || strings.Contains(p, "spec"):
		return "test"
	case strings.Contains(p, "router") || strings.Contains(p, "endpoint") || strings.Contains(p, "controller") || strings.Contains(p, "handler"):
		return "api"
	case strings.Contains(p, "model") || strings.Contains(p, "schema") || strings.Contains(p, "entity"):
		return "model"
	case strings.Contains(p, "service") || strings.Contains(p, "worker"):
		return "service"
	case strings.Contains(p, "config") || strings.Contains(p, "settings"):
		return "config"
	case strings.Contains(p, "main") || strings.Contains(p, "app") || strings.Contains(p, "cmd"):
		return "entry"
	case strings.Contains(p, "util") || strings.Contains(p, "helper"):
		return "util"
	default:
		return "core"
	}
}
