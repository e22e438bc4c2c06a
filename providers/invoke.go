// Package providers hosts the completion backends and the retry wrapper
// every pipeline call goes through.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/providers/models"
	"github.com/meysamhadeli/repodoc/tracker"
	"github.com/meysamhadeli/repodoc/utils"
)

// RetryPolicy bounds how a failed completion is re-attempted. Only
// timeouts and transient failures are retried; quota and invalid-request
// errors surface immediately.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CallTimeout    time.Duration
}

// DefaultRetryPolicy mirrors the pipeline defaults: three attempts with
// exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		CallTimeout:    60 * time.Second,
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// Invoke runs one completion through the retry policy, recording every
// attempt in the run's tracker when the context carries one. It returns
// the last classified error once attempts are exhausted or the failure is
// not retryable.
func Invoke(ctx context.Context, provider contracts.CompletionProvider, request models.CompletionRequest, policy RetryPolicy) (*models.CompletionResponse, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	inputHash := utils.HashString(request.SystemPrompt + "\x00" + request.UserPrompt)
	ledger := tracker.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, policy.CallTimeout)
		}

		started := time.Now()
		response, err := provider.Complete(callCtx, request)
		latency := time.Since(started)
		if cancel != nil {
			cancel()
		}

		record := tracker.CallRecord{
			Model:           request.Model,
			TemplateID:      request.TemplateID,
			TemplateVersion: request.TemplateVersion,
			InputHash:       inputHash,
			Attempt:         attempt,
			Latency:         latency,
			StartedAt:       started,
		}

		if err == nil {
			if ledger != nil {
				record.Outcome = tracker.OutcomeSuccess
				record.InputTokens = response.InputTokens
				record.OutputTokens = response.OutputTokens
				ledger.Record(record)
			}
			return response, nil
		}

		lastErr = err
		var completionErr *models.CompletionError
		if !errors.As(err, &completionErr) {
			completionErr = &models.CompletionError{Kind: models.ErrTransient, Message: err.Error()}
			lastErr = completionErr
		}
		if ledger != nil {
			record.Outcome = tracker.OutcomeFailure
			record.ErrorKind = string(completionErr.Kind)
			ledger.Record(record)
		}

		// The run itself may be done; do not burn attempts on a dead
		// context.
		if ctx.Err() != nil {
			return nil, lastErr
		}
		if !completionErr.Retryable() || attempt == policy.MaxAttempts {
			return nil, lastErr
		}

		select {
		case <-time.After(policy.backoff(attempt)):
		case <-ctx.Done():
			return nil, lastErr
		}
	}

	return nil, lastErr
}
