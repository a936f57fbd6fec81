// Package llm defines the chat-completion abstraction used by the dialogue
// collaborators.
package llm

import (
	"context"

	"github.com/aretw0/gashu/pkg/domain"
)

// ChatRequest contains parameters for a chat call.
type ChatRequest struct {
	Model       string           `json:"model"`
	System      string           `json:"system,omitempty"`
	Messages    []domain.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// ChatResponse contains the model's text reply.
type ChatResponse struct {
	Content string `json:"content"`
}

// Client is the interface for model interactions.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Temperature returns a pointer for ChatRequest.Temperature.
func Temperature(t float64) *float64 {
	return &t
}
