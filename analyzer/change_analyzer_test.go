package analyzer

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

func snapshotOf(files map[string]string) *models.RepositorySnapshot {
	records := make([]models.FileRecord, 0, len(files))
	for path, hash := range files {
		records = append(records, models.FileRecord{Path: path, Hash: hash})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return models.NewRepositorySnapshot("repo", "abc123", records)
}

func TestDiff_FirstRunIsAllAdded(t *testing.T) {
	snapshot := snapshotOf(map[string]string{"main.go": "h1", "util.go": "h2"})

	changes := Diff(nil, snapshot)

	assert.ElementsMatch(t, []string{"main.go", "util.go"}, changes.Added)
	assert.Empty(t, changes.Modified)
	assert.Empty(t, changes.Removed)
	assert.Empty(t, changes.Unchanged)
}

func TestDiff_PartitionsEveryPathExactlyOnce(t *testing.T) {
	previous := map[string]string{
		"kept.go":    "same",
		"changed.go": "old",
		"gone.go":    "h",
	}
	snapshot := snapshotOf(map[string]string{
		"kept.go":    "same",
		"changed.go": "new",
		"fresh.go":   "h2",
	})

	changes := Diff(previous, snapshot)

	assert.Equal(t, []string{"fresh.go"}, changes.Added)
	assert.Equal(t, []string{"changed.go"}, changes.Modified)
	assert.Equal(t, []string{"gone.go"}, changes.Removed)
	assert.Equal(t, []string{"kept.go"}, changes.Unchanged)

	seen := map[string]int{}
	for _, bucket := range [][]string{changes.Added, changes.Modified, changes.Removed, changes.Unchanged} {
		for _, p := range bucket {
			seen[p]++
		}
	}
	for path, count := range seen {
		assert.Equal(t, 1, count, "path %s appears in more than one bucket", path)
	}
}

func TestDiff_RenameIsRemovalPlusAddition(t *testing.T) {
	previous := map[string]string{"old_name.go": "samehash"}
	snapshot := snapshotOf(map[string]string{"new_name.go": "samehash"})

	changes := Diff(previous, snapshot)

	assert.Equal(t, []string{"new_name.go"}, changes.Added)
	assert.Equal(t, []string{"old_name.go"}, changes.Removed)
	assert.Empty(t, changes.Modified)
	assert.Empty(t, changes.Unchanged)
}

func TestChangeSet_ChangedRatio(t *testing.T) {
	changes := models.ChangeSet{
		Added:     []string{"a.go"},
		Modified:  []string{"b.go"},
		Unchanged: []string{"c.go", "d.go"},
	}
	assert.InDelta(t, 0.5, changes.ChangedRatio(), 1e-9)

	assert.Zero(t, models.ChangeSet{}.ChangedRatio())
}

func TestAnalyze_RanksAndFiltersDocumentableFiles(t *testing.T) {
	snapshot := models.NewRepositorySnapshot("repo", "abc", []models.FileRecord{
		{Path: "README.md", Language: "markdown", Size: 400},
		{Path: "internal/service/user_service.go", Language: "go", Size: 9000},
		{Path: "main.go", Language: "go", Size: 2000},
	})

	profile := Analyze(snapshot, nil)

	assert.Equal(t, 3, profile.TotalFiles)
	assert.Equal(t, 2, profile.Languages["go"])
	assert.Len(t, profile.Selected, 2, "markdown is not documentable")
	assert.Equal(t, "main.go", profile.Selected[0].Path, "shallow entry point ranks first")
	assert.Equal(t, "entry", profile.Selected[0].Role)
	assert.Equal(t, "service", profile.Selected[1].Role)
}
