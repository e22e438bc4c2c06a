// Package mock provides the deterministic test-mode completion provider:
// responses derive only from the request payload, and failures can be
// scripted per call to exercise retry behavior.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/providers/models"
	"github.com/meysamhadeli/repodoc/utils"
)

// MockProvider answers completions without any network. When Script is
// non-empty its entries are consumed one per call: a nil entry succeeds,
// a non-nil entry is returned as that call's error. After the script is
// exhausted every call succeeds.
type MockProvider struct {
	Script []*models.CompletionError

	mu    sync.Mutex
	calls int
}

// NewMockProvider returns a provider whose every call succeeds.
func NewMockProvider() contracts.CompletionProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

// Calls reports how many completions were attempted.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Complete(ctx context.Context, request models.CompletionRequest) (*models.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.CompletionError{Kind: models.ErrTimeout, Message: err.Error()}
	}

	p.mu.Lock()
	call := p.calls
	p.calls++
	p.mu.Unlock()

	if call < len(p.Script) {
		if scripted := p.Script[call]; scripted != nil {
			return nil, scripted
		}
	}

	inputHash := utils.HashString(request.SystemPrompt + "\x00" + request.UserPrompt)
	content := renderContent(request, inputHash)

	return &models.CompletionResponse{
		Content:      content,
		InputTokens:  (len(request.SystemPrompt) + len(request.UserPrompt)) / 4,
		OutputTokens: len(content) / 4,
	}, nil
}

// renderContent shapes the deterministic output to the template being
// exercised: document templates get a full sectioned markdown document,
// everything else a single prose line.
func renderContent(request models.CompletionRequest, inputHash string) string {
	stamp := inputHash[:12]
	switch request.TemplateID {
	case "document_full":
		return fmt.Sprintf(`# Mock Documentation %s

## Project Overview

Deterministic overview %s.

## Architecture

Deterministic architecture %s.

## Architecture Diagram

`+"```mermaid\ngraph TD\n  a-->b\n```"+`

## Key Modules

- mock module %s

## Changelog

- entry %s
`, stamp, stamp, stamp, stamp, stamp)
	case "document_incremental":
		return fmt.Sprintf("## Key Modules\n\n- updated mock module %s\n\n## Changelog\n\n- incremental entry %s\n", stamp, stamp)
	default:
		return fmt.Sprintf("Mock %s/%s output %s.", request.TemplateID, request.TemplateVersion, stamp)
	}
}
