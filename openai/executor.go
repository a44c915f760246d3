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
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface verification.
var _ autoeval.Executor = (*Executor)(nil)

// DefaultTimeout is the default timeout for a single model call.
const DefaultTimeout = 5 * time.Minute

const tracerName = "github.com/fwojciec/autoeval/openai"

// Executor implements autoeval.Executor with a single chat completion per prompt.
type Executor struct {
	client      ChatClient
	model       string
	temperature *float32
	timeout     time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// Option configures an Executor or a Grader.
type Option func(*options)

type options struct {
	temperature *float32
	timeout     time.Duration
	logger      zerolog.Logger
}

func defaultOptions() options {
	return options{timeout: DefaultTimeout, logger: zerolog.Nop()}
}

// WithTemperature sets the sampling temperature. Unset, the API default applies.
func WithTemperature(t float32) Option {
	return func(o *options) {
		o.temperature = &t
	}
}

// WithTimeout sets the timeout for API calls. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(client ChatClient, model string, opts ...Option) *Executor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Executor{
		client:      client,
		model:       model,
		temperature: o.temperature,
		timeout:     o.timeout,
		logger:      o.logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Execute sends prompt as a single user message and returns the reply text.
func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "openai.execute", trace.WithAttributes(
		attribute.String("model", e.model),
	))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := goopenai.ChatCompletionRequest{
		Model: e.model,
		Messages: []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if e.temperature != nil {
		req.Temperature = *e.temperature
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		err = wrapAPIError(err)
		recordError(span, err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		err := errors.New("openai: response has no choices")
		recordError(span, err)
		return "", err
	}

	e.logger.Debug().
		Str("model", e.model).
		Dur("duration", time.Since(start)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion")

	return resp.Choices[0].Message.Content, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
