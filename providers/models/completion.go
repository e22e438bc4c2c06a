// Package models defines the request, response and error types shared by
// every completion provider.
package models

import "fmt"

// CompletionRequest is one text-generation call: a system prompt, a user
// payload and the template that produced them.
type CompletionRequest struct {
	Model           string
	SystemPrompt    string
	UserPrompt      string
	TemplateID      string
	TemplateVersion string
	Temperature     *float32
	MaxTokens       int
}

// CompletionResponse is a finished completion with its token accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// ErrorKind classifies a failed completion for the retry policy.
type ErrorKind string

const (
	// ErrTimeout marks calls that exceeded their deadline. Retryable.
	ErrTimeout ErrorKind = "timeout"
	// ErrQuota marks rate-limit and quota rejections. Not retryable.
	ErrQuota ErrorKind = "quota"
	// ErrTransient marks server-side failures expected to clear. Retryable.
	ErrTransient ErrorKind = "transient"
	// ErrInvalid marks requests the provider rejected as malformed. Not
	// retryable.
	ErrInvalid ErrorKind = "invalid"
)

// CompletionError is a classified provider failure.
type CompletionError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion failed (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the retry policy may re-attempt this failure.
func (e *CompletionError) Retryable() bool {
	return e.Kind == ErrTimeout || e.Kind == ErrTransient
}

// ClassifyStatus maps an HTTP status code to an error kind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return ErrQuota
	case status == 408 || status >= 500:
		return ErrTransient
	default:
		return ErrInvalid
	}
}
