package openai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/autoeval/openai"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(content string) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{
			Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func TestExecutor_Execute_ReturnsReplyUnmodified(t *testing.T) {
	t.Parallel()

	var got goopenai.ChatCompletionRequest
	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			got = req
			return reply("```json\n{}\n```"), nil
		},
	}

	out, err := openai.NewExecutor(client, "gpt-4o", openai.WithTemperature(0.2)).Execute(context.Background(), "the prompt")

	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", out)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, goopenai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, "the prompt", got.Messages[0].Content)
}

func TestExecutor_Execute_DefaultsModel(t *testing.T) {
	t.Parallel()

	var model string
	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			model = req.Model
			return reply("ok"), nil
		},
	}

	_, err := openai.NewExecutor(client, "").Execute(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, openai.DefaultModel, model)
}

func TestExecutor_Execute_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(ctx context.Context, _ goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "context should carry a deadline")
			return reply("ok"), nil
		},
	}

	_, err := openai.NewExecutor(client, "m", openai.WithTimeout(time.Second)).Execute(context.Background(), "p")

	require.NoError(t, err)
}

func TestExecutor_Execute_ConvertsAPIError(t *testing.T) {
	t.Parallel()

	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return goopenai.ChatCompletionResponse{}, &goopenai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
		},
	}

	_, err := openai.NewExecutor(client, "m").Execute(context.Background(), "p")

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "rate limited")
}

func TestExecutor_Execute_WrapsOtherErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return goopenai.ChatCompletionResponse{}, cause
		},
	}

	_, err := openai.NewExecutor(client, "m").Execute(context.Background(), "p")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openai:")
}

func TestExecutor_Execute_ReturnsErrorOnNoChoices(t *testing.T) {
	t.Parallel()

	client := &openai.MockChatClient{
		CreateChatCompletionFn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return goopenai.ChatCompletionResponse{}, nil
		},
	}

	_, err := openai.NewExecutor(client, "m").Execute(context.Background(), "p")

	assert.ErrorContains(t, err, "no choices")
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := openai.NewClient(openai.ClientConfig{})
	assert.Error(t, err)

	client, err := openai.NewClient(openai.ClientConfig{APIKey: "key", BaseURL: "http://localhost:1234/v1"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	azure, err := openai.NewClient(openai.ClientConfig{APIKey: "key", AzureEndpoint: "https://example.openai.azure.com"})
	require.NoError(t, err)
	assert.NotNil(t, azure)
}
