// Package tracker records every text-generation call made during a
// workflow run: timing, token usage, outcome and retry attempt. The ledger
// travels on the context so call sites stay free of plumbing.
package tracker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meysamhadeli/repodoc/embed_data"
)

// Outcome classifies how a tracked call ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeDegraded Outcome = "degraded"
)

// CallRecord is one tracked call. Attempt starts at 1 and counts retries
// of the same logical call.
type CallRecord struct {
	ID              string
	Model           string
	TemplateID      string
	TemplateVersion string
	InputHash       string
	InputTokens     int
	OutputTokens    int
	Latency         time.Duration
	Outcome         Outcome
	ErrorKind       string
	Attempt         int
	StartedAt       time.Time
}

// Summary aggregates a run's ledger for reporting and persistence.
type Summary struct {
	Calls        int
	Successes    int
	Failures     int
	Degraded     int
	InputTokens  int
	OutputTokens int
	TotalLatency time.Duration
	Cost         float64
}

// Tracker is an append-only ledger of call records. Safe for concurrent
// use.
type Tracker struct {
	mu      sync.Mutex
	records []CallRecord
}

// NewTracker returns an empty ledger.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends one call record, assigning it an ID if unset.
func (t *Tracker) Record(record CallRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
}

// Records returns a copy of the ledger in append order.
func (t *Tracker) Records() []CallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CallRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Summarize folds the ledger into totals, pricing tokens with the
// embedded per-model cost table.
func (t *Tracker) Summarize() Summary {
	costs := loadModelCosts()

	t.mu.Lock()
	defer t.mu.Unlock()

	var s Summary
	for _, r := range t.records {
		s.Calls++
		switch r.Outcome {
		case OutcomeSuccess:
			s.Successes++
		case OutcomeDegraded:
			s.Degraded++
		default:
			s.Failures++
		}
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
		s.TotalLatency += r.Latency

		if c, ok := costs[r.Model]; ok {
			s.Cost += float64(r.InputTokens) / 1e6 * c.InputCostPerMillionTokens
			s.Cost += float64(r.OutputTokens) / 1e6 * c.OutputCostPerMillionTokens
		}
	}
	return s
}

type modelCost struct {
	InputCostPerMillionTokens  float64 `json:"input_cost_per_million_tokens"`
	OutputCostPerMillionTokens float64 `json:"output_cost_per_million_tokens"`
}

type modelDetails struct {
	Models map[string]modelCost `json:"models"`
}

var (
	modelCostsOnce sync.Once
	modelCosts     map[string]modelCost
)

func loadModelCosts() map[string]modelCost {
	modelCostsOnce.Do(func() {
		var details modelDetails
		if err := json.Unmarshal(embed_data.ModelDetails, &details); err == nil {
			modelCosts = details.Models
		} else {
			modelCosts = map[string]modelCost{}
		}
	})
	return modelCosts
}

type contextKey struct{}

// NewContext attaches a ledger to ctx.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the ledger carried by ctx, or nil when the call is
// untracked.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}
