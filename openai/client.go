// Package openai implements autoeval executors and graders on the OpenAI
// chat completion API, including Azure OpenAI deployments.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the model used for evaluation reports when none is configured.
const DefaultModel = "gpt-4o"

// DefaultGradingModel is the model used for logprob grading. It must
// support logprobs, which rules out reasoning models.
const DefaultGradingModel = "gpt-4o-mini"

// DefaultAzureAPIVersion is the Azure OpenAI API version used when none is configured.
const DefaultAzureAPIVersion = "2024-02-15-preview"

// ChatClient abstracts the chat completion API for testing.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Compile-time check that the SDK client implements ChatClient.
var _ ChatClient = (*goopenai.Client)(nil)

// ClientConfig selects and authenticates an API endpoint.
type ClientConfig struct {
	APIKey  string
	BaseURL string // Optional, for OpenAI-compatible endpoints

	// Azure is used instead of OpenAI when AzureEndpoint is set.
	AzureEndpoint   string
	AzureAPIVersion string
}

// NewClient creates an SDK client for cfg.
func NewClient(cfg ClientConfig) (*goopenai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	if cfg.AzureEndpoint != "" {
		config := goopenai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		config.APIVersion = cfg.AzureAPIVersion
		if config.APIVersion == "" {
			config.APIVersion = DefaultAzureAPIVersion
		}
		return goopenai.NewClientWithConfig(config), nil
	}

	config := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return goopenai.NewClientWithConfig(config), nil
}

// APIError represents an error from the OpenAI API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// wrapAPIError converts SDK errors to APIError so callers need not import the SDK.
func wrapAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    fmt.Sprintf("openai API error (HTTP %d): %s", apiErr.HTTPStatusCode, apiErr.Message),
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    fmt.Sprintf("openai request error (HTTP %d): %v", reqErr.HTTPStatusCode, reqErr.Err),
		}
	}
	return fmt.Errorf("openai: %w", err)
}

// MockChatClient is a mock implementation of ChatClient for testing.
type MockChatClient struct {
	CreateChatCompletionFn func(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	return m.CreateChatCompletionFn(ctx, req)
}
