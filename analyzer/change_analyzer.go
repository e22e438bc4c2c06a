package analyzer

import (
	"sort"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

// Diff partitions the union of previously known paths and the snapshot's
// paths into added, modified, removed and unchanged. A file counts as
// unchanged only when its content hash matches the previous digest at the
// same path; a rename therefore shows up as one removal plus one addition.
// previousDigest may be nil for a first run, in which case every file is
// added.
func Diff(previousDigest map[string]string, snapshot *models.RepositorySnapshot) models.ChangeSet {
	var changes models.ChangeSet

	for _, f := range snapshot.Files {
		previousHash, existed := previousDigest[f.Path]
		switch {
		case !existed:
			changes.Added = append(changes.Added, f.Path)
		case previousHash != f.Hash:
			changes.Modified = append(changes.Modified, f.Path)
		default:
			changes.Unchanged = append(changes.Unchanged, f.Path)
		}
	}

	for path := range previousDigest {
		if snapshot.File(path) == nil {
			changes.Removed = append(changes.Removed, path)
		}
	}
	sort.Strings(changes.Removed)

	return changes
}
