// Package store provides the persistence backends: PostgreSQL for
// production and an in-memory implementation for tests and database-less
// runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meysamhadeli/repodoc/store/contracts"
	"github.com/meysamhadeli/repodoc/store/models"
)

// PostgresStore wraps a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// schema is applied on connect. Idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY,
	repository_id TEXT NOT NULL,
	commit_ref TEXT NOT NULL,
	status TEXT NOT NULL,
	mode TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	calls INT NOT NULL DEFAULT 0,
	input_tokens INT NOT NULL DEFAULT 0,
	output_tokens INT NOT NULL DEFAULT 0,
	cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS runs_repository_idx ON runs (repository_id, started_at DESC);

CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	repository_id TEXT NOT NULL,
	commit_ref TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	template_version TEXT NOT NULL,
	status TEXT NOT NULL,
	degraded BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (repository_id, cache_key)
);
CREATE INDEX IF NOT EXISTS documents_latest_idx ON documents (repository_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS file_summaries (
	repository_id TEXT NOT NULL,
	path TEXT NOT NULL,
	hash TEXT NOT NULL,
	template_version TEXT NOT NULL,
	text TEXT NOT NULL,
	degraded BOOLEAN NOT NULL DEFAULT FALSE,
	generated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (repository_id, path)
);

CREATE TABLE IF NOT EXISTS llm_calls (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES runs (id),
	model TEXT NOT NULL,
	template_id TEXT NOT NULL,
	template_version TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	input_tokens INT NOT NULL,
	output_tokens INT NOT NULL,
	latency_ms BIGINT NOT NULL,
	outcome TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	attempt INT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS llm_calls_run_idx ON llm_calls (run_id);

CREATE TABLE IF NOT EXISTS checkpoints (
	run_id UUID NOT NULL REFERENCES runs (id),
	stage TEXT NOT NULL,
	payload BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, stage)
);
`

// Connect establishes a connection pool and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string) (contracts.Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) CreateRun(ctx context.Context, run models.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, repository_id, commit_ref, status, mode, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.RepositoryID, run.CommitRef, run.Status, run.Mode, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID uuid.UUID, status, errorMessage string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2,
			completed_at = CASE WHEN $1 IN ('completed', 'aborted') THEN NOW() ELSE completed_at END
		 WHERE id = $3`,
		status, errorMessage, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, commit_ref, status, mode, error, calls, input_tokens, output_tokens, cost, started_at, completed_at
		 FROM runs WHERE id = $1`, runID)
	return scanRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, repositoryID string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, repository_id, commit_ref, status, mode, error, calls, input_tokens, output_tokens, cost, started_at, completed_at
		 FROM runs WHERE repository_id = $1 ORDER BY started_at DESC LIMIT $2`,
		repositoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	err := row.Scan(&run.ID, &run.RepositoryID, &run.CommitRef, &run.Status, &run.Mode, &run.Error,
		&run.Calls, &run.InputTokens, &run.OutputTokens, &run.Cost, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}

func (s *PostgresStore) LatestDocument(ctx context.Context, repositoryID string) (*models.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, commit_ref, title, content, cache_key, template_version, status, degraded, created_at, updated_at
		 FROM documents WHERE repository_id = $1 AND status = $2
		 ORDER BY updated_at DESC LIMIT 1`,
		repositoryID, models.DocumentStatusGenerated)
	return scanDocument(row)
}

func (s *PostgresStore) FindDocumentByCacheKey(ctx context.Context, repositoryID, cacheKey string) (*models.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, commit_ref, title, content, cache_key, template_version, status, degraded, created_at, updated_at
		 FROM documents WHERE repository_id = $1 AND cache_key = $2`,
		repositoryID, cacheKey)
	return scanDocument(row)
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.RepositoryID, &doc.CommitRef, &doc.Title, &doc.Content,
		&doc.CacheKey, &doc.TemplateVersion, &doc.Status, &doc.Degraded, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) FileSummaries(ctx context.Context, repositoryID string) (map[string]models.FileSummaryRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT repository_id, path, hash, template_version, text, degraded, generated_at
		 FROM file_summaries WHERE repository_id = $1`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[string]models.FileSummaryRow)
	for rows.Next() {
		var row models.FileSummaryRow
		if err := rows.Scan(&row.RepositoryID, &row.Path, &row.Hash, &row.TemplateVersion,
			&row.Text, &row.Degraded, &row.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file summary: %w", err)
		}
		summaries[row.Path] = row
	}
	return summaries, rows.Err()
}

// SaveResult writes the document, summaries, removed-path pruning, call
// ledger and run update in one transaction.
func (s *PostgresStore) SaveResult(ctx context.Context, request models.SaveRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, repository_id, commit_ref, title, content, cache_key, template_version, status, degraded, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		 ON CONFLICT (repository_id, cache_key) DO UPDATE SET
			commit_ref = EXCLUDED.commit_ref,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			template_version = EXCLUDED.template_version,
			status = EXCLUDED.status,
			degraded = EXCLUDED.degraded,
			updated_at = EXCLUDED.updated_at`,
		request.Document.ID, request.Document.RepositoryID, request.Document.CommitRef,
		request.Document.Title, request.Document.Content, request.Document.CacheKey,
		request.Document.TemplateVersion, request.Document.Status, request.Document.Degraded,
		request.Document.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	for _, summary := range request.Summaries {
		_, err = tx.Exec(ctx,
			`INSERT INTO file_summaries (repository_id, path, hash, template_version, text, degraded, generated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (repository_id, path) DO UPDATE SET
				hash = EXCLUDED.hash,
				template_version = EXCLUDED.template_version,
				text = EXCLUDED.text,
				degraded = EXCLUDED.degraded,
				generated_at = EXCLUDED.generated_at`,
			summary.RepositoryID, summary.Path, summary.Hash, summary.TemplateVersion,
			summary.Text, summary.Degraded, summary.GeneratedAt)
		if err != nil {
			return fmt.Errorf("failed to save summary for %s: %w", summary.Path, err)
		}
	}

	// Drop memo rows for files this commit removed, so later diffs do not
	// keep reporting them.
	if len(request.RemovedPaths) > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM file_summaries WHERE repository_id = $1 AND path = ANY($2)`,
			request.Document.RepositoryID, request.RemovedPaths)
		if err != nil {
			return fmt.Errorf("failed to prune removed file summaries: %w", err)
		}
	}

	for _, call := range request.Calls {
		_, err = tx.Exec(ctx,
			`INSERT INTO llm_calls (id, run_id, model, template_id, template_version, input_hash, input_tokens, output_tokens, latency_ms, outcome, error_kind, attempt, started_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			call.ID, call.RunID, call.Model, call.TemplateID, call.TemplateVersion, call.InputHash,
			call.InputTokens, call.OutputTokens, call.LatencyMs, call.Outcome, call.ErrorKind,
			call.Attempt, call.StartedAt)
		if err != nil {
			return fmt.Errorf("failed to save call record: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE runs SET status = $1, mode = $2, error = $3, calls = $4, input_tokens = $5, output_tokens = $6, cost = $7, completed_at = NOW()
		 WHERE id = $8`,
		request.Run.Status, request.Run.Mode, request.Run.Error, request.Run.Calls,
		request.Run.InputTokens, request.Run.OutputTokens, request.Run.Cost, request.Run.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveCheckpoint(ctx context.Context, checkpoint models.Checkpoint) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkpoints (run_id, stage, payload, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, stage) DO UPDATE SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at`,
		checkpoint.RunID, checkpoint.Stage, checkpoint.Payload, checkpoint.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestCheckpoint(ctx context.Context, runID uuid.UUID) (*models.Checkpoint, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT run_id, stage, payload, created_at FROM checkpoints
		 WHERE run_id = $1 ORDER BY created_at DESC LIMIT 1`, runID)

	var checkpoint models.Checkpoint
	err := row.Scan(&checkpoint.RunID, &checkpoint.Stage, &checkpoint.Payload, &checkpoint.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
	}
	return &checkpoint, nil
}
