package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/providers/models"
	openai_models "github.com/meysamhadeli/repodoc/providers/openai/models"
)

// OpenAIConfig implements the CompletionProvider interface over the chat
// completions HTTP API.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

const defaultBaseURL = "https://api.openai.com/v1"

// NewOpenAIChatProvider initializes a new chat completions provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.CompletionProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return config
}

func (p *OpenAIConfig) Name() string { return "openai" }

func (p *OpenAIConfig) Complete(ctx context.Context, request models.CompletionRequest) (*models.CompletionResponse, error) {
	model := request.Model
	if model == "" {
		model = p.Model
	}

	reqBody := openai_models.ChatCompletionRequest{
		Model: model,
		Messages: []openai_models.Message{
			{Role: "system", Content: request.SystemPrompt},
			{Role: "user", Content: request.UserPrompt},
		},
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
		Stream:      false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &models.CompletionError{Kind: models.ErrInvalid, Message: fmt.Sprintf("error marshalling request body: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", p.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &models.CompletionError{Kind: models.ErrInvalid, Message: fmt.Sprintf("error creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &models.CompletionError{Kind: models.ErrTimeout, Message: "request deadline exceeded"}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &models.CompletionError{Kind: models.ErrTimeout, Message: "request canceled"}
		}
		return nil, &models.CompletionError{Kind: models.ErrTransient, Message: fmt.Sprintf("error sending request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.CompletionError{Kind: models.ErrTransient, Message: fmt.Sprintf("error reading response body: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.CompletionError{
			Kind:       models.ClassifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var completion openai_models.ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, &models.CompletionError{Kind: models.ErrTransient, Message: fmt.Sprintf("error decoding response: %v", err)}
	}
	if len(completion.Choices) == 0 {
		return nil, &models.CompletionError{Kind: models.ErrTransient, Message: "response contained no choices"}
	}

	return &models.CompletionResponse{
		Content:      completion.Choices[0].Message.Content,
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}, nil
}
