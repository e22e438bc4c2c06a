package generator

import (
	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/utils"
)

// CacheKey derives the document cache key for a snapshot: a hash over the
// template version and the sorted path:hash pairs of every selected file.
// Identical inputs under the same template version always map to the same
// key, which backs the duplicate-commit short circuit.
func CacheKey(templateVersion string, snapshot *models.RepositorySnapshot, selected []string) string {
	pairs := make(map[string]string, len(selected))
	for _, path := range selected {
		if f := snapshot.File(path); f != nil {
			pairs[path] = f.Hash
		}
	}
	return utils.HashPairs(templateVersion, pairs)
}
