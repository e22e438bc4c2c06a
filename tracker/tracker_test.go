package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_RecordAssignsIDAndPreservesOrder(t *testing.T) {
	ledger := NewTracker()

	ledger.Record(CallRecord{TemplateID: "file_summary", Attempt: 1, Outcome: OutcomeFailure})
	ledger.Record(CallRecord{TemplateID: "file_summary", Attempt: 2, Outcome: OutcomeSuccess})

	records := ledger.Records()
	assert.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, 1, records[0].Attempt)
	assert.Equal(t, 2, records[1].Attempt)
}

func TestTracker_SummarizeCountsOutcomesAndCost(t *testing.T) {
	ledger := NewTracker()
	ledger.Record(CallRecord{Model: "gpt-4o-mini", Outcome: OutcomeSuccess, InputTokens: 1_000_000, OutputTokens: 1_000_000, Latency: time.Second})
	ledger.Record(CallRecord{Model: "gpt-4o-mini", Outcome: OutcomeFailure, Latency: time.Second})
	ledger.Record(CallRecord{Model: "mock", Outcome: OutcomeDegraded})

	summary := ledger.Summarize()

	assert.Equal(t, 3, summary.Calls)
	assert.Equal(t, 1, summary.Successes)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 1, summary.Degraded)
	assert.Equal(t, 1_000_000, summary.InputTokens)
	assert.Equal(t, 2*time.Second, summary.TotalLatency)
	// 1M input at 0.15 plus 1M output at 0.6 per million tokens.
	assert.InDelta(t, 0.75, summary.Cost, 1e-9)
}

func TestTracker_ConcurrentRecording(t *testing.T) {
	ledger := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Record(CallRecord{Outcome: OutcomeSuccess})
		}()
	}
	wg.Wait()

	assert.Len(t, ledger.Records(), 50)
}

func TestTracker_ContextRoundTrip(t *testing.T) {
	ledger := NewTracker()
	ctx := NewContext(context.Background(), ledger)

	assert.Same(t, ledger, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
