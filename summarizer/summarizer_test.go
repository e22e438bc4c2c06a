package summarizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/repodoc/analyzer/models"
	"github.com/meysamhadeli/repodoc/providers"
	"github.com/meysamhadeli/repodoc/providers/mock"
	provider_models "github.com/meysamhadeli/repodoc/providers/models"
)

func fastPolicy() providers.RetryPolicy {
	return providers.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func sampleFile() models.FileRecord {
	return models.FileRecord{
		Path:     "internal/auth/service.go",
		Language: "go",
		Hash:     "abc123",
		Content:  []byte("package auth\n\nfunc Login() {}\n"),
	}
}

func sampleParse() *models.ParseResult {
	return &models.ParseResult{
		Path:       "internal/auth/service.go",
		Strategy:   "tree-sitter",
		Confidence: models.ConfidenceFull,
		Symbols:    []models.Symbol{{Kind: "function", Name: "Login"}},
	}
}

func TestSummarize_HappyPath(t *testing.T) {
	provider := &mock.MockProvider{}
	s := NewSummarizer(provider, fastPolicy(), "mock", "v4")

	summary := s.Summarize(context.Background(), sampleFile(), sampleParse())

	assert.False(t, summary.Degraded)
	assert.NotEmpty(t, summary.Text)
	assert.Equal(t, "abc123", summary.Hash)
	assert.Equal(t, "v4", summary.TemplateVersion)
	assert.Equal(t, 1, provider.Calls())
}

func TestSummarize_DegradesAfterExhaustedRetries(t *testing.T) {
	provider := &mock.MockProvider{Script: []*provider_models.CompletionError{
		{Kind: provider_models.ErrTimeout, Message: "deadline"},
		{Kind: provider_models.ErrTimeout, Message: "deadline"},
		{Kind: provider_models.ErrTimeout, Message: "deadline"},
	}}
	s := NewSummarizer(provider, fastPolicy(), "mock", "v4")

	summary := s.Summarize(context.Background(), sampleFile(), sampleParse())

	assert.True(t, summary.Degraded)
	assert.Contains(t, summary.Text, "internal/auth/service.go")
	assert.Contains(t, summary.Text, "Login")
	assert.NotEmpty(t, summary.Reason)
	assert.Equal(t, 3, provider.Calls())
}

func TestSummarize_QuotaFailsWithoutRetry(t *testing.T) {
	provider := &mock.MockProvider{Script: []*provider_models.CompletionError{
		{Kind: provider_models.ErrQuota, StatusCode: 429, Message: "rate limited"},
	}}
	s := NewSummarizer(provider, fastPolicy(), "mock", "v4")

	summary := s.Summarize(context.Background(), sampleFile(), sampleParse())

	assert.True(t, summary.Degraded)
	assert.Equal(t, 1, provider.Calls())
}

func TestSummarize_DegradedStubIsDeterministic(t *testing.T) {
	script := []*provider_models.CompletionError{
		{Kind: provider_models.ErrInvalid, Message: "bad"},
	}
	s1 := NewSummarizer(&mock.MockProvider{Script: script}, fastPolicy(), "mock", "v4")
	s2 := NewSummarizer(&mock.MockProvider{Script: script}, fastPolicy(), "mock", "v4")

	first := s1.Summarize(context.Background(), sampleFile(), sampleParse())
	second := s2.Summarize(context.Background(), sampleFile(), sampleParse())

	assert.Equal(t, first.Text, second.Text)
}
