package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/providers/mock"
	"github.com/meysamhadeli/repodoc/providers/models"
	"github.com/meysamhadeli/repodoc/tracker"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}
}

func request() models.CompletionRequest {
	return models.CompletionRequest{
		Model:           "mock",
		SystemPrompt:    "system",
		UserPrompt:      "user",
		TemplateID:      "file_summary",
		TemplateVersion: "v4",
	}
}

func TestInvoke_RetriesTransientThenSucceeds(t *testing.T) {
	provider := &mock.MockProvider{Script: []*models.CompletionError{
		{Kind: models.ErrTransient, Message: "upstream hiccup"},
		{Kind: models.ErrTimeout, Message: "slow"},
		nil,
	}}
	ledger := tracker.NewTracker()
	ctx := tracker.NewContext(context.Background(), ledger)

	response, err := Invoke(ctx, provider, request(), fastPolicy(3))

	assert.NoError(t, err)
	assert.NotEmpty(t, response.Content)
	assert.Equal(t, 3, provider.Calls())

	records := ledger.Records()
	assert.Len(t, records, 3)
	assert.Equal(t, tracker.OutcomeFailure, records[0].Outcome)
	assert.Equal(t, 1, records[0].Attempt)
	assert.Equal(t, tracker.OutcomeSuccess, records[2].Outcome)
	assert.Equal(t, 3, records[2].Attempt)
}

func TestInvoke_StopsAtMaxAttempts(t *testing.T) {
	provider := &mock.MockProvider{Script: []*models.CompletionError{
		{Kind: models.ErrTransient, Message: "down"},
		{Kind: models.ErrTransient, Message: "down"},
		{Kind: models.ErrTransient, Message: "down"},
		{Kind: models.ErrTransient, Message: "down"},
	}}

	_, err := Invoke(context.Background(), provider, request(), fastPolicy(3))

	assert.Error(t, err)
	assert.Equal(t, 3, provider.Calls())
}

func TestInvoke_DoesNotRetryQuota(t *testing.T) {
	provider := &mock.MockProvider{Script: []*models.CompletionError{
		{Kind: models.ErrQuota, StatusCode: 429, Message: "rate limited"},
	}}

	_, err := Invoke(context.Background(), provider, request(), fastPolicy(3))

	assert.Error(t, err)
	assert.Equal(t, 1, provider.Calls())

	var completionErr *models.CompletionError
	assert.ErrorAs(t, err, &completionErr)
	assert.Equal(t, models.ErrQuota, completionErr.Kind)
}

func TestInvoke_DoesNotRetryInvalid(t *testing.T) {
	provider := &mock.MockProvider{Script: []*models.CompletionError{
		{Kind: models.ErrInvalid, StatusCode: 400, Message: "bad payload"},
	}}

	_, err := Invoke(context.Background(), provider, request(), fastPolicy(3))

	assert.Error(t, err)
	assert.Equal(t, 1, provider.Calls())
}

func TestInvoke_StopsWhenRunContextEnds(t *testing.T) {
	provider := &mock.MockProvider{Script: []*models.CompletionError{
		{Kind: models.ErrTransient, Message: "down"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Invoke(ctx, provider, request(), fastPolicy(5))

	assert.Error(t, err)
	assert.LessOrEqual(t, provider.Calls(), 1)
}

func TestRetryPolicy_BackoffIsExponentialAndCapped(t *testing.T) {
	policy := RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, policy.backoff(1))
	assert.Equal(t, 2*time.Second, policy.backoff(2))
	assert.Equal(t, 4*time.Second, policy.backoff(3))
	assert.Equal(t, 5*time.Second, policy.backoff(4))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, models.ErrQuota, models.ClassifyStatus(429))
	assert.Equal(t, models.ErrTransient, models.ClassifyStatus(503))
	assert.Equal(t, models.ErrTransient, models.ClassifyStatus(408))
	assert.Equal(t, models.ErrInvalid, models.ClassifyStatus(400))
}
