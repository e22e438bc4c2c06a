package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/analyzer/models"
)

func TestStage_TransitionTable(t *testing.T) {
	legal := []struct{ from, to Stage }{
		{StageStarted, StageAnalyzed},
		{StageAnalyzed, StageDecided},
		{StageDecided, StageFullGeneration},
		{StageDecided, StageIncrementalGeneration},
		{StageDecided, StageSkipped},
		{StageFullGeneration, StageSaved},
		{StageIncrementalGeneration, StageSaved},
		{StageSkipped, StageCompleted},
		{StageSaved, StageCompleted},
	}
	for _, tc := range legal {
		assert.True(t, tc.from.CanTransition(tc.to), "%s -> %s must be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to Stage }{
		{StageStarted, StageDecided},
		{StageStarted, StageSaved},
		{StageAnalyzed, StageFullGeneration},
		{StageSkipped, StageSaved},
		{StageCompleted, StageAnalyzed},
		{StageCompleted, StageAborted},
		{StageAborted, StageStarted},
	}
	for _, tc := range illegal {
		assert.False(t, tc.from.CanTransition(tc.to), "%s -> %s must be illegal", tc.from, tc.to)
	}
}

func TestStage_AbortedReachableFromAnyNonTerminal(t *testing.T) {
	for _, stage := range []Stage{StageStarted, StageAnalyzed, StageDecided,
		StageFullGeneration, StageIncrementalGeneration, StageSkipped, StageSaved} {
		assert.True(t, stage.CanTransition(StageAborted), "%s -> aborted", stage)
	}
}

func TestStage_TransitionRejectsIllegalMove(t *testing.T) {
	next, err := StageStarted.Transition(StageSaved)
	assert.Error(t, err)
	assert.Equal(t, StageStarted, next)
}

func TestDecide(t *testing.T) {
	someChanges := models.ChangeSet{Modified: []string{"a.go"}, Unchanged: []string{"b.go", "c.go", "d.go"}}
	bigChanges := models.ChangeSet{Modified: []string{"a.go", "b.go", "c.go"}, Unchanged: []string{"d.go"}}

	assert.Equal(t, DecisionFull, Decide(someChanges, false, "", "v4", 0.5),
		"no prior document forces a full build")
	assert.Equal(t, DecisionSkip, Decide(models.ChangeSet{Unchanged: []string{"a.go"}}, true, "v4", "v4", 0.5),
		"empty change set with existing document skips")
	assert.Equal(t, DecisionIncremental, Decide(someChanges, true, "v4", "v4", 0.5))
	assert.Equal(t, DecisionFull, Decide(bigChanges, true, "v4", "v4", 0.5),
		"change ratio at or above threshold rebuilds")
	assert.Equal(t, DecisionFull, Decide(someChanges, true, "v3", "v4", 0.5),
		"template version bump rebuilds")
}

func TestDecide_IsDeterministic(t *testing.T) {
	changes := models.ChangeSet{Added: []string{"x.go"}, Unchanged: []string{"y.go"}}
	first := Decide(changes, true, "v4", "v4", 0.9)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(changes, true, "v4", "v4", 0.9))
	}
}
