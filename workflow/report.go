package workflow

import (
	"sort"

	"github.com/google/uuid"

	"github.com/meysamhadeli/repodoc/tracker"
)

// FileOutcome classifies what happened to one input file during a run.
type FileOutcome string

const (
	OutcomeSummarized       FileOutcome = "summarized"
	OutcomeDegraded         FileOutcome = "degraded"
	OutcomeSkippedUnchanged FileOutcome = "skipped-unchanged"
	OutcomeRemoved          FileOutcome = "removed"
)

// FileReport is one file's outcome with an optional reason.
type FileReport struct {
	Path    string
	Outcome FileOutcome
	Reason  string
}

// Report is the completion report returned to the caller. Every input
// file appears exactly once, so degraded work is never silent.
type Report struct {
	RunID      uuid.UUID
	Repository string
	CommitRef  string
	Stage      Stage
	Decision   Decision
	DocumentID uuid.UUID
	CacheHit   bool
	Degraded   bool
	Files      []FileReport
	Calls      tracker.Summary
}

// DegradedFiles lists the paths that need manual follow-up.
func (r Report) DegradedFiles() []string {
	var paths []string
	for _, f := range r.Files {
		if f.Outcome == OutcomeDegraded {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

func (r *Report) sortFiles() {
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
}
