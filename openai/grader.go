package openai

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/autoeval"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface verification.
var _ autoeval.Grader = (*Grader)(nil)

// topLogprobs is the number of candidate tokens requested per grade; one
// per grade on the 1-5 scale.
const topLogprobs = 5

// GradingTemperature is the sampling temperature of grading requests.
// go-openai omits a zero temperature from the request, which leaves the API
// default of 1, so a near-zero value is sent instead.
const GradingTemperature float32 = 1e-4

// Grader implements autoeval.Grader by reading the top candidate tokens of
// a one-token grading response.
type Grader struct {
	client  ChatClient
	model   string
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewGrader creates a new Grader. Temperature options are ignored: grading
// always samples at GradingTemperature.
func NewGrader(client ChatClient, model string, opts ...Option) *Grader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if model == "" {
		model = DefaultGradingModel
	}
	return &Grader{
		client:  client,
		model:   model,
		timeout: o.timeout,
		logger:  o.logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Grade asks the model to grade report from 1 to 5 and returns the
// distribution over its top candidate grades.
func (g *Grader) Grade(ctx context.Context, report string) (*autoeval.Distribution, error) {
	ctx, span := g.tracer.Start(ctx, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.model),
	))
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: autoeval.BuildGradingPrompt(report),
		}},
		MaxTokens:   1,
		Temperature: GradingTemperature,
		LogProbs:    true,
		TopLogProbs: topLogprobs,
	})
	if err != nil {
		err = wrapAPIError(err)
		recordError(span, err)
		return nil, err
	}

	candidates, err := firstTokenCandidates(resp)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	d := autoeval.NewDistribution(candidates)
	g.logger.Debug().
		Str("model", g.model).
		Int("grade", d.Score()).
		Float64("weighted", d.WeightedScore()).
		Msg("grade distribution")
	return d, nil
}

func firstTokenCandidates(resp goopenai.ChatCompletionResponse) ([]autoeval.TokenLogprob, error) {
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	logprobs := resp.Choices[0].LogProbs
	if logprobs == nil || len(logprobs.Content) == 0 {
		return nil, errors.New("openai: response carries no logprobs")
	}
	top := logprobs.Content[0].TopLogProbs
	candidates := make([]autoeval.TokenLogprob, len(top))
	for i, c := range top {
		candidates[i] = autoeval.TokenLogprob{Token: c.Token, Logprob: c.LogProb}
	}
	return candidates, nil
}
