package gemini_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/autoeval/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_Execute_ReturnsReplyUnmodified(t *testing.T) {
	t.Parallel()

	var (
		gotModel    string
		gotContents []*gemini.Content
		gotConfig   *gemini.GenerateContentConfig
	)
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(_ context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return &gemini.GenerateContentResponse{Text: "- **Pass** (90%): ok\n"}, nil
		},
	}

	out, err := gemini.NewExecutor(client, "gemini-2.5-flash", gemini.WithTemperature(0.3)).Execute(context.Background(), "the prompt")

	require.NoError(t, err)
	assert.Equal(t, "- **Pass** (90%): ok\n", out)
	assert.Equal(t, "gemini-2.5-flash", gotModel)
	require.Len(t, gotContents, 1)
	require.Len(t, gotContents[0].Parts, 1)
	assert.Equal(t, "the prompt", gotContents[0].Parts[0].Text)
	require.NotNil(t, gotConfig.Temperature)
	assert.InDelta(t, 0.3, *gotConfig.Temperature, 1e-6)
	assert.Empty(t, gotConfig.ResponseMIMEType)
	assert.Nil(t, gotConfig.ResponseSchema)
}

func TestExecutor_Execute_DefaultsModel(t *testing.T) {
	t.Parallel()

	var gotModel string
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(_ context.Context, model string, _ []*gemini.Content, _ *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			gotModel = model
			return &gemini.GenerateContentResponse{}, nil
		},
	}

	_, err := gemini.NewExecutor(client, "").Execute(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, gemini.DefaultModel, gotModel)
}

func TestExecutor_Execute_WithReportSchema(t *testing.T) {
	t.Parallel()

	var gotConfig *gemini.GenerateContentConfig
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(_ context.Context, _ string, _ []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			gotConfig = config
			return &gemini.GenerateContentResponse{Text: `{"evaluation_steps":[]}`}, nil
		},
	}

	_, err := gemini.NewExecutor(client, "m", gemini.WithReportSchema(), gemini.WithThinkingLevel("LOW")).Execute(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotConfig.ResponseMIMEType)
	assert.Equal(t, "LOW", gotConfig.ThinkingLevel)
	require.NotNil(t, gotConfig.ResponseSchema)
	steps := gotConfig.ResponseSchema.Properties["evaluation_steps"]
	require.NotNil(t, steps)
	assert.Equal(t, "array", steps.Type)
	assert.ElementsMatch(t, []string{"criterion", "weight", "passed", "confidence", "explanation"}, steps.Items.Required)
}

func TestExecutor_Execute_PropagatesError(t *testing.T) {
	t.Parallel()

	apiErr := gemini.NewAPIError(429, "rate limited")
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return nil, apiErr
		},
	}

	_, err := gemini.NewExecutor(client, "m").Execute(context.Background(), "p")

	var got *gemini.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 429, got.StatusCode)
}

func TestExecutor_Execute_NilResponse(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return nil, nil
		},
	}

	_, err := gemini.NewExecutor(client, "m").Execute(context.Background(), "p")

	assert.ErrorContains(t, err, "nil response")
}

func TestExecutor_Execute_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, _ string, _ []*gemini.Content, _ *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := gemini.NewExecutor(client, "m", gemini.WithTimeout(10*time.Millisecond)).Execute(context.Background(), "p")

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
