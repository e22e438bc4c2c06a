// Package models holds the data types threaded through the documentation
// pipeline: repository snapshots, parse results, change sets and file
// summaries.
package models

import "time"

// FileRecord is one file inside a snapshot. Content is loaded when the
// snapshot is built and is read-only for the rest of the run.
type FileRecord struct {
	Path     string
	Language string
	Hash     string
	Size     int64
	Content  []byte
}

// RepositorySnapshot is an immutable view of repository file state at one
// commit. Files are kept sorted by path so every consumer observes the same
// canonical order.
type RepositorySnapshot struct {
	RepositoryID string
	CommitRef    string
	Files        []FileRecord

	byPath map[string]int
}

// NewRepositorySnapshot builds a snapshot from an already path-sorted file
// list and indexes it by path.
func NewRepositorySnapshot(repositoryID, commitRef string, files []FileRecord) *RepositorySnapshot {
	byPath := make(map[string]int, len(files))
	for i, f := range files {
		byPath[f.Path] = i
	}
	return &RepositorySnapshot{
		RepositoryID: repositoryID,
		CommitRef:    commitRef,
		Files:        files,
		byPath:       byPath,
	}
}

// File returns the record for path, or nil when the snapshot has no such
// file.
func (s *RepositorySnapshot) File(path string) *FileRecord {
	if i, ok := s.byPath[path]; ok {
		return &s.Files[i]
	}
	return nil
}

// Digest maps every path in the snapshot to its content hash.
func (s *RepositorySnapshot) Digest() map[string]string {
	digest := make(map[string]string, len(s.Files))
	for _, f := range s.Files {
		digest[f.Path] = f.Hash
	}
	return digest
}

// ParseConfidence tags how a parse result was produced.
type ParseConfidence string

const (
	// ConfidenceFull means the grammar-backed parser handled the file.
	ConfidenceFull ParseConfidence = "full"
	// ConfidenceDegraded means the heuristic fallback produced the result.
	ConfidenceDegraded ParseConfidence = "degraded"
	// ConfidenceMock marks deterministic results from the test strategy.
	ConfidenceMock ParseConfidence = "mock"
)

// Symbol is one extracted code element, tagged with its kind
// (function, class, method, ...).
type Symbol struct {
	Kind string
	Name string
}

// ParseResult is the outcome of parsing a single file. It is never nil:
// failed parses carry a degraded confidence and whatever symbols the
// fallback could extract.
type ParseResult struct {
	Path       string
	Strategy   string
	Confidence ParseConfidence
	Symbols    []Symbol
}

// ChangeSet partitions the union of the previous digest's paths and the
// snapshot's paths into four disjoint buckets. Every path belongs to exactly
// one bucket.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string
}

// IsEmpty reports whether nothing was added, modified or removed.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// ChangedRatio returns the fraction of current files that need regeneration.
func (c ChangeSet) ChangedRatio() float64 {
	current := len(c.Added) + len(c.Modified) + len(c.Unchanged)
	if current == 0 {
		return 0
	}
	return float64(len(c.Added)+len(c.Modified)) / float64(current)
}

// NeedsRegeneration lists the paths whose summaries must be rebuilt, in
// unspecified order.
func (c ChangeSet) NeedsRegeneration() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	return out
}

// FileSummary is the per-file natural language summary. Degraded summaries
// are stubs produced after the text-generation call exhausted its retries
// and are flagged for manual follow-up.
type FileSummary struct {
	Path            string
	Hash            string
	Text            string
	TemplateVersion string
	Degraded        bool
	Reason          string
	GeneratedAt     time.Time
}

// RankedFile is a documentation-relevant file with its significance score.
type RankedFile struct {
	Path     string
	Language string
	Score    float64
	Role     string
}

// RepoProfile is the structural metadata the Repository Analyzer derives
// from a snapshot: which files matter for documentation and how much.
type RepoProfile struct {
	Selected   []RankedFile
	Languages  map[string]int
	TotalFiles int
}

// SelectedPaths returns the profile's file paths in rank order.
func (p RepoProfile) SelectedPaths() []string {
	paths := make([]string, len(p.Selected))
	for i, f := range p.Selected {
		paths[i] = f.Path
	}
	return paths
}
