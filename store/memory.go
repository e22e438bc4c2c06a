package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meysamhadeli/repodoc/store/contracts"
	"github.com/meysamhadeli/repodoc/store/models"
)

// MemoryStore is the in-process Store used by tests and database-less
// runs. It mirrors the transactional semantics of the PostgreSQL backend:
// SaveResult applies all writes under one lock acquisition.
type MemoryStore struct {
	mu          sync.RWMutex
	runs        map[uuid.UUID]models.Run
	documents   []models.Document
	summaries   map[string]map[string]models.FileSummaryRow
	calls       []models.CallRow
	checkpoints map[uuid.UUID][]models.Checkpoint
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[uuid.UUID]models.Run),
		summaries:   make(map[string]map[string]models.FileSummaryRow),
		checkpoints: make(map[uuid.UUID][]models.Checkpoint),
	}
}

var _ contracts.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateRun(_ context.Context, run models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) UpdateRunStatus(_ context.Context, runID uuid.UUID, status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return contracts.ErrNotFound
	}
	run.Status = status
	run.Error = errorMessage
	if status == "completed" || status == "aborted" {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	s.runs[runID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID uuid.UUID) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &run, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, repositoryID string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []models.Run
	for _, run := range s.runs {
		if run.RepositoryID == repositoryID {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) LatestDocument(_ context.Context, repositoryID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Document
	for i := range s.documents {
		doc := s.documents[i]
		if doc.RepositoryID != repositoryID || doc.Status != models.DocumentStatusGenerated {
			continue
		}
		if latest == nil || doc.UpdatedAt.After(latest.UpdatedAt) {
			copied := doc
			latest = &copied
		}
	}
	if latest == nil {
		return nil, contracts.ErrNotFound
	}
	return latest, nil
}

func (s *MemoryStore) FindDocumentByCacheKey(_ context.Context, repositoryID, cacheKey string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.documents {
		if s.documents[i].RepositoryID == repositoryID && s.documents[i].CacheKey == cacheKey {
			copied := s.documents[i]
			return &copied, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (s *MemoryStore) FileSummaries(_ context.Context, repositoryID string) (map[string]models.FileSummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.FileSummaryRow, len(s.summaries[repositoryID]))
	for path, row := range s.summaries[repositoryID] {
		out[path] = row
	}
	return out, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, request models.SaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.documents {
		if s.documents[i].RepositoryID == request.Document.RepositoryID &&
			s.documents[i].CacheKey == request.Document.CacheKey {
			request.Document.ID = s.documents[i].ID
			request.Document.CreatedAt = s.documents[i].CreatedAt
			s.documents[i] = request.Document
			replaced = true
			break
		}
	}
	if !replaced {
		s.documents = append(s.documents, request.Document)
	}

	repo := request.Document.RepositoryID
	if s.summaries[repo] == nil {
		s.summaries[repo] = make(map[string]models.FileSummaryRow)
	}
	for _, summary := range request.Summaries {
		s.summaries[repo][summary.Path] = summary
	}
	for _, path := range request.RemovedPaths {
		delete(s.summaries[repo], path)
	}

	s.calls = append(s.calls, request.Calls...)

	run := request.Run
	if existing, ok := s.runs[run.ID]; ok {
		run.StartedAt = existing.StartedAt
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	s.runs[run.ID] = run

	return nil
}

// Calls returns every persisted call row, oldest first.
func (s *MemoryStore) Calls() []models.CallRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CallRow, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.checkpoints[checkpoint.RunID]
	for i := range existing {
		if existing[i].Stage == checkpoint.Stage {
			existing[i] = checkpoint
			return nil
		}
	}
	s.checkpoints[checkpoint.RunID] = append(existing, checkpoint)
	return nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context, runID uuid.UUID) (*models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := s.checkpoints[runID]
	if len(checkpoints) == 0 {
		return nil, contracts.ErrNotFound
	}
	latest := checkpoints[0]
	for _, checkpoint := range checkpoints[1:] {
		if checkpoint.CreatedAt.After(latest.CreatedAt) {
			latest = checkpoint
		}
	}
	return &latest, nil
}
