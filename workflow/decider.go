package workflow

import "github.com/meysamhadeli/repodoc/analyzer/models"

// Decision is the generation strategy chosen for a run.
type Decision string

const (
	DecisionSkip        Decision = "skip"
	DecisionFull        Decision = "full"
	DecisionIncremental Decision = "incremental"
)

// Decide picks the generation strategy. Pure function: skip when nothing
// changed and a document already exists; full when there is no prior
// document, the previous document used a different template version, or
// the changed ratio crosses the rebuild threshold; incremental otherwise.
func Decide(changes models.ChangeSet, hasPreviousDocument bool, previousTemplateVersion, templateVersion string, fullRebuildThreshold float64) Decision {
	if !hasPreviousDocument {
		return DecisionFull
	}
	if previousTemplateVersion != templateVersion {
		return DecisionFull
	}
	if changes.IsEmpty() {
		return DecisionSkip
	}
	if changes.ChangedRatio() >= fullRebuildThreshold {
		return DecisionFull
	}
	return DecisionIncremental
}
