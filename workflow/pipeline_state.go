package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/generator"
	store_models "github.com/meysamhadeli/repodoc/store/models"
	"github.com/meysamhadeli/repodoc/tracker"
)

// PipelineState is the mutable aggregate passed between stages. It is
// exclusively owned by one run; per-file workers hand their results back
// to the orchestrator, which merges them here single-threaded.
type PipelineState struct {
	RunID     uuid.UUID
	Stage     Stage
	Decision  Decision
	Snapshot  *models.RepositorySnapshot
	Profile   models.RepoProfile
	Changes   models.ChangeSet
	Parsed    map[string]*models.ParseResult
	Summaries map[string]models.FileSummary
	Artifact  *generator.Artifact
	Files     []FileReport

	// CallRecords carries the tracker ledger across a resume, so a
	// save-only retry still persists the calls the original run made.
	CallRecords []tracker.CallRecord
}

// newPipelineState starts a run at Started.
func newPipelineState(runID uuid.UUID, snapshot *models.RepositorySnapshot) *PipelineState {
	return &PipelineState{
		RunID:     runID,
		Stage:     StageStarted,
		Snapshot:  snapshot,
		Parsed:    make(map[string]*models.ParseResult),
		Summaries: make(map[string]models.FileSummary),
	}
}

// advance moves the state machine, rejecting illegal transitions.
func (s *PipelineState) advance(next Stage) error {
	stage, err := s.Stage.Transition(next)
	if err != nil {
		return err
	}
	s.Stage = stage
	return nil
}

// checkpointPayload is the serialized checkpoint body: the minimum needed
// to re-enter at the recorded stage without repeating upstream work. The
// draft artifact makes a save-only retry possible.
type checkpointPayload struct {
	Stage     Stage                         `json:"stage"`
	Decision  Decision                      `json:"decision,omitempty"`
	Summaries map[string]models.FileSummary `json:"summaries,omitempty"`
	Artifact  *generator.Artifact           `json:"artifact,omitempty"`
	Files     []FileReport                  `json:"files,omitempty"`
	Removed   []string                      `json:"removed,omitempty"`
	Calls     []tracker.CallRecord          `json:"calls,omitempty"`
}

// checkpoint serializes the state for persistence after the current stage
// completed.
func (s *PipelineState) checkpoint() (store_models.Checkpoint, error) {
	payload := checkpointPayload{
		Stage:    s.Stage,
		Decision: s.Decision,
		Files:    s.Files,
	}
	// Summaries, the draft artifact, the removed paths and the call
	// ledger are only worth persisting once generation produced them.
	if s.Artifact != nil {
		payload.Summaries = s.Summaries
		payload.Artifact = s.Artifact
		payload.Removed = s.Changes.Removed
		payload.Calls = s.CallRecords
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return store_models.Checkpoint{}, fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	return store_models.Checkpoint{
		RunID:     s.RunID,
		Stage:     string(s.Stage),
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// restore overlays a persisted checkpoint onto a fresh state.
func (s *PipelineState) restore(checkpoint store_models.Checkpoint) error {
	var payload checkpointPayload
	if err := json.Unmarshal(checkpoint.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	s.Stage = payload.Stage
	s.Decision = payload.Decision
	s.Artifact = payload.Artifact
	s.Files = payload.Files
	s.Changes.Removed = payload.Removed
	s.CallRecords = payload.Calls
	if payload.Summaries != nil {
		s.Summaries = payload.Summaries
	}
	return nil
}
