package providers

import (
	"fmt"

	"github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/providers/mock"
	"github.com/meysamhadeli/repodoc/providers/openai"
)

// AIProviderConfig selects and configures the completion backend.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	ApiKey      string   `mapstructure:"api_key"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

// NewCompletionProvider builds the provider named by the config.
func NewCompletionProvider(config *AIProviderConfig) (contracts.CompletionProvider, error) {
	switch config.Provider {
	case "openai":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL: config.BaseURL,
			APIKey:  config.ApiKey,
			Model:   config.Model,
		}), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
