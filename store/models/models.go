// Package models defines the persistence rows for runs, documents, file
// summaries, call records and checkpoints.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatusGenerated is the only status a persisted document carries.
// Drafts never reach the documents table: they live in the run's checkpoint
// payload until the transactional save lands them as generated.
const DocumentStatusGenerated = "generated"

// Run is one workflow execution for a (repository, commit) pair.
type Run struct {
	ID           uuid.UUID
	RepositoryID string
	CommitRef    string
	Status       string
	Mode         string
	Error        string
	Calls        int
	InputTokens  int
	OutputTokens int
	Cost         float64
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// Document is a persisted documentation artifact.
type Document struct {
	ID              uuid.UUID
	RepositoryID    string
	CommitRef       string
	Title           string
	Content         string
	CacheKey        string
	TemplateVersion string
	Status          string
	Degraded        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FileSummaryRow memoizes one file summary per (repository, path). The
// stored hash and template version decide reuse: either changing
// invalidates the row.
type FileSummaryRow struct {
	RepositoryID    string
	Path            string
	Hash            string
	TemplateVersion string
	Text            string
	Degraded        bool
	GeneratedAt     time.Time
}

// CallRow is one persisted text-generation call record.
type CallRow struct {
	ID              string
	RunID           uuid.UUID
	Model           string
	TemplateID      string
	TemplateVersion string
	InputHash       string
	InputTokens     int
	OutputTokens    int
	LatencyMs       int64
	Outcome         string
	ErrorKind       string
	Attempt         int
	StartedAt       time.Time
}

// Checkpoint is the persisted pipeline state after a completed stage,
// used to resume interrupted runs.
type Checkpoint struct {
	RunID     uuid.UUID
	Stage     string
	Payload   []byte
	CreatedAt time.Time
}

// SaveRequest bundles everything the transactional save writes
// atomically: the finalized document, the refreshed summaries, the run's
// call ledger and the memo rows to drop for files the commit removed.
type SaveRequest struct {
	Run          Run
	Document     Document
	Summaries    []FileSummaryRow
	Calls        []CallRow
	RemovedPaths []string
}
