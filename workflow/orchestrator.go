package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meysamhadeli/repodoc/analyzer"
	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/generator"
	"github.com/meysamhadeli/repodoc/providers"
	provider_contracts "github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/store/contracts"
	store_models "github.com/meysamhadeli/repodoc/store/models"
	"github.com/meysamhadeli/repodoc/summarizer"
	"github.com/meysamhadeli/repodoc/tracker"
)

// ErrRunActive is returned when a trigger arrives for a (repository,
// commit) pair that already has an active run. Concurrent triggers are
// rejected, not queued.
var ErrRunActive = errors.New("a run is already active for this repository and commit")

// ErrInvalidTrigger marks triggers rejected before a run starts.
var ErrInvalidTrigger = errors.New("invalid trigger")

// ErrSaveFailed marks a failed persistence step. The run is left at its
// generation checkpoint instead of aborting, so a retried trigger
// re-enters at the save step without redoing parsing or summarization.
var ErrSaveFailed = errors.New("failed to persist run result")

// Trigger is one documentation request. Snapshot may be pre-built (event
// payloads, tests); otherwise RootDir is walked.
type Trigger struct {
	RepositoryID string
	CommitRef    string
	RootDir      string
	Snapshot     *models.RepositorySnapshot
}

// Options are the run-level knobs.
type Options struct {
	Model                string
	TemplateVersion      string
	FullRebuildThreshold float64
	MaxConcurrentCalls   int
	RetryPolicy          providers.RetryPolicy
}

// Orchestrator drives runs through the stage machine. One instance
// serves many runs; per-run state lives in PipelineState.
type Orchestrator struct {
	store    contracts.Store
	provider provider_contracts.CompletionProvider
	selector parseSelector
	options  Options

	mu     sync.Mutex
	active map[string]bool
}

// parseSelector is the slice of the parser the orchestrator needs.
type parseSelector interface {
	Parse(file models.FileRecord) *models.ParseResult
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(store contracts.Store, provider provider_contracts.CompletionProvider, selector parseSelector, options Options) *Orchestrator {
	if options.MaxConcurrentCalls < 1 {
		options.MaxConcurrentCalls = 4
	}
	if options.FullRebuildThreshold <= 0 {
		options.FullRebuildThreshold = 0.5
	}
	return &Orchestrator{
		store:    store,
		provider: provider,
		selector: selector,
		options:  options,
		active:   make(map[string]bool),
	}
}

func runKey(repositoryID, commitRef string) string {
	return repositoryID + "\x00" + commitRef
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[key] {
		return false
	}
	o.active[key] = true
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, key)
}

// RunStatus answers a status query: the newest run for the key and
// whether this orchestrator currently holds it active.
type RunStatus struct {
	Run    store_models.Run
	Active bool
}

// Status reports on the newest run for a (repository, commit) pair. The
// in-process active registry is consulted first, then the persisted rows;
// an active run whose row has not landed yet reports as started.
func (o *Orchestrator) Status(ctx context.Context, repositoryID, commitRef string) (*RunStatus, error) {
	o.mu.Lock()
	active := o.active[runKey(repositoryID, commitRef)]
	o.mu.Unlock()

	runs, err := o.store.ListRuns(ctx, repositoryID, 50)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.CommitRef == commitRef {
			return &RunStatus{Run: run, Active: active}, nil
		}
	}
	if active {
		return &RunStatus{
			Run: store_models.Run{
				RepositoryID: repositoryID,
				CommitRef:    commitRef,
				Status:       string(StageStarted),
			},
			Active: true,
		}, nil
	}
	return nil, contracts.ErrNotFound
}

// Run executes one documentation run to a terminal stage and returns its
// completion report. Per-file failures degrade, never abort; fatal stage
// errors abort the run and are returned alongside the partial report.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) (*Report, error) {
	if trigger.RepositoryID == "" || trigger.CommitRef == "" {
		return nil, fmt.Errorf("%w: repository id and commit ref are required", ErrInvalidTrigger)
	}
	if trigger.Snapshot == nil && trigger.RootDir == "" {
		return nil, fmt.Errorf("%w: either a snapshot or a root directory is required", ErrInvalidTrigger)
	}

	key := runKey(trigger.RepositoryID, trigger.CommitRef)
	if !o.acquire(key) {
		return nil, ErrRunActive
	}
	defer o.release(key)

	ledger := tracker.NewTracker()
	ctx = tracker.NewContext(ctx, ledger)

	snapshot := trigger.Snapshot
	if snapshot == nil {
		built, err := analyzer.BuildSnapshot(trigger.RootDir, trigger.RepositoryID, trigger.CommitRef)
		if err != nil {
			return nil, fmt.Errorf("repository unreadable: %w", err)
		}
		snapshot = built
	}

	state, isResumed, err := o.openRun(ctx, trigger, snapshot)
	if err != nil {
		return nil, err
	}
	if isResumed {
		// Replay the checkpointed ledger so the original run's calls
		// survive a save-only retry.
		for _, record := range state.CallRecords {
			ledger.Record(record)
		}
	}

	report := &Report{
		RunID:      state.RunID,
		Repository: trigger.RepositoryID,
		CommitRef:  trigger.CommitRef,
	}

	if err := o.execute(ctx, state, report, ledger, isResumed); err != nil {
		if errors.Is(err, ErrSaveFailed) {
			// The generation checkpoint stays valid; the next trigger
			// for this (repository, commit) retries only the save.
			report.Stage = state.Stage
			return report, err
		}
		state.Stage = StageAborted
		report.Stage = StageAborted
		_ = o.store.UpdateRunStatus(ctx, state.RunID, string(StageAborted), err.Error())
		return report, err
	}

	report.Stage = state.Stage
	report.Decision = state.Decision
	report.Calls = ledger.Summarize()
	report.sortFiles()
	return report, nil
}

// openRun either resumes the newest unfinished run for this (repository,
// commit) or creates a fresh one.
func (o *Orchestrator) openRun(ctx context.Context, trigger Trigger, snapshot *models.RepositorySnapshot) (*PipelineState, bool, error) {
	previousRuns, err := o.store.ListRuns(ctx, trigger.RepositoryID, 50)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up prior runs: %w", err)
	}
	for _, prior := range previousRuns {
		if prior.CommitRef != trigger.CommitRef || Stage(prior.Status).IsTerminal() {
			continue
		}
		checkpoint, err := o.store.LatestCheckpoint(ctx, prior.ID)
		if err != nil {
			if errors.Is(err, contracts.ErrNotFound) {
				break
			}
			return nil, false, err
		}
		state := newPipelineState(prior.ID, snapshot)
		if err := state.restore(*checkpoint); err != nil {
			return nil, false, err
		}
		return state, true, nil
	}

	runID := uuid.New()
	run := store_models.Run{
		ID:           runID,
		RepositoryID: trigger.RepositoryID,
		CommitRef:    trigger.CommitRef,
		Status:       string(StageStarted),
		StartedAt:    time.Now().UTC(),
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return nil, false, fmt.Errorf("failed to create run: %w", err)
	}
	return newPipelineState(runID, snapshot), false, nil
}

// execute runs the stage sequence. A resumed state that already carries a
// draft artifact re-enters at the save step.
func (o *Orchestrator) execute(ctx context.Context, state *PipelineState, report *Report, ledger *tracker.Tracker, isResumed bool) error {
	if isResumed && state.Artifact != nil {
		report.Files = state.Files
		report.Decision = state.Decision
		return o.save(ctx, state, report, ledger)
	}
	state.Stage = StageStarted

	previousDoc, err := o.previousDocument(ctx, state.Snapshot.RepositoryID)
	if err != nil {
		return err
	}
	memo, err := o.store.FileSummaries(ctx, state.Snapshot.RepositoryID)
	if err != nil {
		return fmt.Errorf("failed to load summary memo: %w", err)
	}

	if err := o.analyze(ctx, state, memo); err != nil {
		return err
	}
	if err := o.decide(ctx, state, previousDoc); err != nil {
		return err
	}

	if state.Decision == DecisionSkip {
		return o.skip(ctx, state, report)
	}

	// Duplicate-input short circuit: identical selected content under the
	// same template version reuses the persisted artifact untouched. The
	// run finishes through the skip path, so the decision is recorded as
	// such.
	cacheKey := generator.CacheKey(o.options.TemplateVersion, state.Snapshot, state.Profile.SelectedPaths())
	if cached, err := o.store.FindDocumentByCacheKey(ctx, state.Snapshot.RepositoryID, cacheKey); err == nil &&
		cached.Status == store_models.DocumentStatusGenerated {
		report.CacheHit = true
		report.DocumentID = cached.ID
		state.Decision = DecisionSkip
		return o.skip(ctx, state, report)
	}

	if err := o.generate(ctx, state, report, previousDoc, memo, ledger); err != nil {
		return err
	}
	return o.save(ctx, state, report, ledger)
}

func (o *Orchestrator) previousDocument(ctx context.Context, repositoryID string) (*store_models.Document, error) {
	doc, err := o.store.LatestDocument(ctx, repositoryID)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load previous document: %w", err)
	}
	return doc, nil
}

// analyze populates profile and change set from the snapshot and the
// persisted per-file digest.
func (o *Orchestrator) analyze(ctx context.Context, state *PipelineState, memo map[string]store_models.FileSummaryRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	previousDigest := make(map[string]string, len(memo))
	for path, row := range memo {
		previousDigest[path] = row.Hash
	}

	state.Profile = analyzer.Analyze(state.Snapshot, nil)

	// Diff over the documentable view only: files the pipeline never
	// summarizes must not keep runs from skipping.
	selectedRecords := make([]models.FileRecord, 0, len(state.Profile.Selected))
	for _, ranked := range state.Profile.Selected {
		if f := state.Snapshot.File(ranked.Path); f != nil {
			selectedRecords = append(selectedRecords, *f)
		}
	}
	sort.Slice(selectedRecords, func(i, j int) bool { return selectedRecords[i].Path < selectedRecords[j].Path })
	documentable := models.NewRepositorySnapshot(state.Snapshot.RepositoryID, state.Snapshot.CommitRef, selectedRecords)
	state.Changes = analyzer.Diff(previousDigest, documentable)

	if err := state.advance(StageAnalyzed); err != nil {
		return err
	}
	return o.checkpoint(ctx, state)
}

func (o *Orchestrator) decide(ctx context.Context, state *PipelineState, previousDoc *store_models.Document) error {
	previousTemplateVersion := ""
	if previousDoc != nil {
		previousTemplateVersion = previousDoc.TemplateVersion
	}
	state.Decision = Decide(state.Changes, previousDoc != nil, previousTemplateVersion,
		o.options.TemplateVersion, o.options.FullRebuildThreshold)

	if err := state.advance(StageDecided); err != nil {
		return err
	}
	return o.checkpoint(ctx, state)
}

func (o *Orchestrator) skip(ctx context.Context, state *PipelineState, report *Report) error {
	if err := state.advance(StageSkipped); err != nil {
		return err
	}
	for _, f := range state.Snapshot.Files {
		report.Files = append(report.Files, FileReport{Path: f.Path, Outcome: OutcomeSkippedUnchanged})
	}
	if err := state.advance(StageCompleted); err != nil {
		return err
	}
	return o.store.UpdateRunStatus(ctx, state.RunID, string(StageCompleted), "")
}

// generate fans per-file parse+summarize work across a bounded worker
// pool, merges results in path order, then synthesizes the document.
func (o *Orchestrator) generate(ctx context.Context, state *PipelineState, report *Report, previousDoc *store_models.Document, memo map[string]store_models.FileSummaryRow, ledger *tracker.Tracker) error {
	generationStage := StageFullGeneration
	if state.Decision == DecisionIncremental {
		generationStage = StageIncrementalGeneration
	}
	if err := state.advance(generationStage); err != nil {
		return err
	}

	selected := make(map[string]bool, len(state.Profile.Selected))
	for _, ranked := range state.Profile.Selected {
		selected[ranked.Path] = true
	}

	var pending []string
	for _, path := range state.Profile.SelectedPaths() {
		file := state.Snapshot.File(path)
		if file == nil {
			continue
		}
		// Reuse the memoized summary when content and template version
		// both still match.
		if row, ok := memo[path]; ok &&
			row.Hash == file.Hash && row.TemplateVersion == o.options.TemplateVersion && !row.Degraded {
			state.Summaries[path] = models.FileSummary{
				Path:            path,
				Hash:            row.Hash,
				Text:            row.Text,
				TemplateVersion: row.TemplateVersion,
				GeneratedAt:     row.GeneratedAt,
			}
			report.Files = append(report.Files, FileReport{Path: path, Outcome: OutcomeSkippedUnchanged})
			continue
		}
		pending = append(pending, path)
	}

	results, err := o.summarizeAll(ctx, state, pending)
	if err != nil {
		return err
	}

	// Merge in canonical path order so output is independent of worker
	// completion order.
	sort.Slice(results, func(i, j int) bool { return results[i].summary.Path < results[j].summary.Path })
	for _, r := range results {
		state.Parsed[r.parsed.Path] = r.parsed
		state.Summaries[r.summary.Path] = r.summary
		outcome := OutcomeSummarized
		if r.summary.Degraded {
			outcome = OutcomeDegraded
			report.Degraded = true
		}
		report.Files = append(report.Files, FileReport{Path: r.summary.Path, Outcome: outcome, Reason: r.summary.Reason})
	}
	for _, path := range state.Changes.Removed {
		report.Files = append(report.Files, FileReport{Path: path, Outcome: OutcomeRemoved})
	}
	for _, f := range state.Snapshot.Files {
		if !selected[f.Path] {
			report.Files = append(report.Files, FileReport{Path: f.Path, Outcome: OutcomeSkippedUnchanged})
		}
	}

	input := generator.Input{
		Snapshot:  state.Snapshot,
		Profile:   state.Profile,
		Summaries: state.Summaries,
		Parsed:    state.Parsed,
		Changes:   state.Changes,
	}
	gen := generator.NewGenerator(o.provider, o.options.RetryPolicy, o.options.Model, o.options.TemplateVersion)

	var artifact *generator.Artifact
	if state.Decision == DecisionIncremental && previousDoc != nil {
		artifact, err = gen.GenerateIncremental(ctx, input, previousDoc.Content)
	} else {
		artifact, err = gen.GenerateFull(ctx, input)
	}
	if err != nil {
		return err
	}
	if artifact.Degraded {
		report.Degraded = true
	}

	state.Artifact = artifact
	state.Files = report.Files
	state.CallRecords = ledger.Records()
	return o.checkpoint(ctx, state)
}

type fileResult struct {
	parsed  *models.ParseResult
	summary models.FileSummary
}

// summarizeAll runs parse+summarize for each pending path, bounded by the
// configured in-flight limit. Worker results are collected and merged by
// the caller only after every worker finished.
func (o *Orchestrator) summarizeAll(ctx context.Context, state *PipelineState, pending []string) ([]fileResult, error) {
	if len(pending) == 0 {
		return nil, nil
	}

	s := summarizer.NewSummarizer(o.provider, o.options.RetryPolicy, o.options.Model, o.options.TemplateVersion)
	sem := semaphore.NewWeighted(int64(o.options.MaxConcurrentCalls))
	results := make([]fileResult, len(pending))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, path := range pending {
		i, path := i, path
		g.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			file := state.Snapshot.File(path)
			parsed := o.selector.Parse(*file)
			summary := s.Summarize(groupCtx, *file, parsed)
			results[i] = fileResult{parsed: parsed, summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// save persists the artifact, summaries and call ledger atomically, then
// completes the run. A failure here leaves the generation checkpoint in
// place, so a retried run re-enters at this step only.
func (o *Orchestrator) save(ctx context.Context, state *PipelineState, report *Report, ledger *tracker.Tracker) error {
	summary := ledger.Summarize()

	documentID := uuid.New()
	now := time.Now().UTC()
	document := store_models.Document{
		ID:              documentID,
		RepositoryID:    state.Snapshot.RepositoryID,
		CommitRef:       state.Snapshot.CommitRef,
		Title:           state.Artifact.Title,
		Content:         state.Artifact.Content,
		CacheKey:        state.Artifact.CacheKey,
		TemplateVersion: state.Artifact.TemplateVersion,
		Status:          store_models.DocumentStatusGenerated,
		Degraded:        state.Artifact.Degraded,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	summaryRows := make([]store_models.FileSummaryRow, 0, len(state.Summaries))
	for _, s := range state.Summaries {
		summaryRows = append(summaryRows, store_models.FileSummaryRow{
			RepositoryID:    state.Snapshot.RepositoryID,
			Path:            s.Path,
			Hash:            s.Hash,
			TemplateVersion: s.TemplateVersion,
			Text:            s.Text,
			Degraded:        s.Degraded,
			GeneratedAt:     s.GeneratedAt,
		})
	}
	sort.Slice(summaryRows, func(i, j int) bool { return summaryRows[i].Path < summaryRows[j].Path })

	callRows := make([]store_models.CallRow, 0, summary.Calls)
	for _, record := range ledger.Records() {
		callRows = append(callRows, store_models.CallRow{
			ID:              record.ID,
			RunID:           state.RunID,
			Model:           record.Model,
			TemplateID:      record.TemplateID,
			TemplateVersion: record.TemplateVersion,
			InputHash:       record.InputHash,
			InputTokens:     record.InputTokens,
			OutputTokens:    record.OutputTokens,
			LatencyMs:       record.Latency.Milliseconds(),
			Outcome:         string(record.Outcome),
			ErrorKind:       record.ErrorKind,
			Attempt:         record.Attempt,
			StartedAt:       record.StartedAt,
		})
	}

	run := store_models.Run{
		ID:           state.RunID,
		RepositoryID: state.Snapshot.RepositoryID,
		CommitRef:    state.Snapshot.CommitRef,
		Status:       string(StageCompleted),
		Mode:         string(state.Decision),
		Calls:        summary.Calls,
		InputTokens:  summary.InputTokens,
		OutputTokens: summary.OutputTokens,
		Cost:         summary.Cost,
	}

	if err := o.store.SaveResult(ctx, store_models.SaveRequest{
		Run:          run,
		Document:     document,
		Summaries:    summaryRows,
		Calls:        callRows,
		RemovedPaths: state.Changes.Removed,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	if err := state.advance(StageSaved); err != nil {
		return err
	}
	if err := state.advance(StageCompleted); err != nil {
		return err
	}
	report.DocumentID = documentID
	return nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, state *PipelineState) error {
	checkpoint, err := state.checkpoint()
	if err != nil {
		return err
	}
	if err := o.store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return o.store.UpdateRunStatus(ctx, state.RunID, string(state.Stage), "")
}
