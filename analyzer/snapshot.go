// Package analyzer builds repository snapshots and derives the structural
// and change metadata the workflow runs on.
package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/utils"
)

// maxFileSize caps how large a file may be before it is excluded from the
// snapshot entirely.
const maxFileSize = 100 * 1024

// BuildSnapshot walks rootDir and produces an immutable snapshot of its
// documentable files: ignored paths, binaries and oversized files are
// filtered out, content hashes are computed with xxh3, and files are sorted
// by path.
func BuildSnapshot(rootDir, repositoryID, commitRef string) (*models.RepositorySnapshot, error) {
	ignorePatterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, err
	}

	var files []models.FileRecord

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		relativePath = strings.ReplaceAll(relativePath, "\\", "/")
		if relativePath == "." {
			return nil
		}

		if utils.IsDefaultIgnored(relativePath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if utils.IsIgnored(relativePath, ignorePatterns) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat file: %s, error: %w", relativePath, err)
		}
		if info.Size() > maxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
		}
		if utils.IsProbablyBinary(content) {
			return nil
		}

		files = append(files, models.FileRecord{
			Path:     relativePath,
			Language: utils.DetectLanguage(relativePath),
			Hash:     utils.HashBytes(content),
			Size:     info.Size(),
			Content:  content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository %s: %w", repositoryID, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return models.NewRepositorySnapshot(repositoryID, commitRef, files), nil
}
