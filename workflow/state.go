// Package workflow drives the documentation pipeline: an explicit state
// machine over analysis, decision, generation and save, with bounded
// per-file concurrency, checkpoint resume and single-active-run isolation.
package workflow

import "fmt"

// Stage is a state of the run state machine.
type Stage string

const (
	StageStarted               Stage = "started"
	StageAnalyzed              Stage = "analyzed"
	StageDecided               Stage = "decided"
	StageFullGeneration        Stage = "full_generation"
	StageIncrementalGeneration Stage = "incremental_generation"
	StageSkipped               Stage = "skipped"
	StageSaved                 Stage = "saved"
	StageCompleted             Stage = "completed"
	StageAborted               Stage = "aborted"
)

// transitions is the fixed transition table. Branching is three outcomes
// out of Decided; everything else is linear.
var transitions = map[Stage][]Stage{
	StageStarted:               {StageAnalyzed},
	StageAnalyzed:              {StageDecided},
	StageDecided:               {StageFullGeneration, StageIncrementalGeneration, StageSkipped},
	StageFullGeneration:        {StageSaved},
	StageIncrementalGeneration: {StageSaved},
	StageSkipped:               {StageCompleted},
	StageSaved:                 {StageCompleted},
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageAborted
}

// CanTransition reports whether moving from s to next is legal. Aborted
// is reachable from every non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageAborted {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and returns the next stage.
func (s Stage) Transition(next Stage) (Stage, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("illegal stage transition %s -> %s", s, next)
	}
	return next, nil
}
