package contracts

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/meysamhadeli/repodoc/store/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store persists runs, documents, file summaries, call records and
// checkpoints. Implementations must make SaveResult atomic: either the
// document, its summaries, the call ledger and the run update all land,
// or none do.
type Store interface {
	CreateRun(ctx context.Context, run models.Run) error
	UpdateRunStatus(ctx context.Context, runID uuid.UUID, status, errorMessage string) error
	GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error)
	ListRuns(ctx context.Context, repositoryID string, limit int) ([]models.Run, error)

	// LatestDocument returns the newest generated document for a
	// repository, or ErrNotFound.
	LatestDocument(ctx context.Context, repositoryID string) (*models.Document, error)
	// FindDocumentByCacheKey backs the duplicate-input short circuit.
	FindDocumentByCacheKey(ctx context.Context, repositoryID, cacheKey string) (*models.Document, error)

	// FileSummaries returns the memoized summaries for a repository keyed
	// by path.
	FileSummaries(ctx context.Context, repositoryID string) (map[string]models.FileSummaryRow, error)

	// SaveResult atomically persists a finished run's outputs.
	SaveResult(ctx context.Context, request models.SaveRequest) error

	SaveCheckpoint(ctx context.Context, checkpoint models.Checkpoint) error
	// LatestCheckpoint returns the newest checkpoint for a run, or
	// ErrNotFound.
	LatestCheckpoint(ctx context.Context, runID uuid.UUID) (*models.Checkpoint, error)

	Close()
}
