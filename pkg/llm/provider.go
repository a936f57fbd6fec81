package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// Provider identifies a model provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseModelString splits "provider/model". Without a prefix the provider
// is inferred from the model name and defaults to OpenAI.
//
//	"openai/gpt-4o-mini"       → (openai, "gpt-4o-mini")
//	"anthropic/claude-haiku-4" → (anthropic, "claude-haiku-4")
//	"claude-sonnet-4"          → (anthropic, "claude-sonnet-4")
//	"gpt-3.5-turbo"            → (openai, "gpt-3.5-turbo")
func ParseModelString(model string) (Provider, string) {
	if i := strings.Index(model, "/"); i > 0 {
		switch Provider(strings.ToLower(model[:i])) {
		case ProviderOpenAI:
			return ProviderOpenAI, model[i+1:]
		case ProviderAnthropic:
			return ProviderAnthropic, model[i+1:]
		}
	}
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return ProviderAnthropic, model
	}
	return ProviderOpenAI, model
}

// Settings selects and authenticates a backend.
type Settings struct {
	Model         string
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string
	HTTPClient    *http.Client
}

// NewClient builds the client for s.Model and returns the bare model name.
func NewClient(s Settings) (Client, string, error) {
	provider, model := ParseModelString(s.Model)
	if model == "" {
		return nil, "", fmt.Errorf("llm: empty model name")
	}

	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(s.AnthropicKey), model, nil
	default:
		opts := []OpenAIOption{WithBaseURL(s.OpenAIBaseURL)}
		if s.HTTPClient != nil {
			opts = append(opts, WithHTTPClient(s.HTTPClient))
		}
		return NewOpenAIClient(s.OpenAIKey, opts...), model, nil
	}
}
