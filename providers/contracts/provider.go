package contracts

import (
	"context"

	"github.com/meysamhadeli/repodoc/providers/models"
)

// CompletionProvider is a non-streaming text-generation backend. Failed
// calls return a *models.CompletionError so callers can classify them.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, request models.CompletionRequest) (*models.CompletionResponse, error)
}
