// Package anthropic implements autoeval.Executor on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/autoeval"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface verification.
var _ autoeval.Executor = (*Executor)(nil)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens bounds the length of an evaluation report.
const DefaultMaxTokens = 8192

// DefaultTimeout is the default timeout for a single model call.
const DefaultTimeout = 5 * time.Minute

// MessageClient abstracts the Messages API for testing.
type MessageClient interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Compile-time check that the SDK message service implements MessageClient.
var _ MessageClient = (*sdk.MessageService)(nil)

// NewClient creates an SDK message client.
func NewClient(apiKey, baseURL string) (MessageClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := sdk.NewClient(opts...)
	return &client.Messages, nil
}

// Executor implements autoeval.Executor with one message per prompt.
type Executor struct {
	client      MessageClient
	model       string
	maxTokens   int64
	temperature *float64
	timeout     time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ExecutorOption {
	return func(e *Executor) {
		e.temperature = &t
	}
}

// WithMaxTokens sets the maximum reply length.
func WithMaxTokens(n int64) ExecutorOption {
	return func(e *Executor) {
		e.maxTokens = n
	}
}

// WithTimeout sets the timeout for API calls. Zero disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger zerolog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(client MessageClient, model string, opts ...ExecutorOption) *Executor {
	if model == "" {
		model = DefaultModel
	}
	e := &Executor{
		client:    client,
		model:     model,
		maxTokens: DefaultMaxTokens,
		timeout:   DefaultTimeout,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer("github.com/fwojciec/autoeval/anthropic"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute sends prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "anthropic.execute", trace.WithAttributes(
		attribute.String("model", e.model),
	))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if e.temperature != nil {
		params.Temperature = sdk.Float(*e.temperature)
	}

	start := time.Now()
	msg, err := e.client.New(ctx, params)
	if err != nil {
		err = wrapAPIError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if msg == nil {
		err := errors.New("anthropic: returned nil message")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	e.logger.Debug().
		Str("model", e.model).
		Dur("duration", time.Since(start)).
		Int64("input_tokens", msg.Usage.InputTokens).
		Int64("output_tokens", msg.Usage.OutputTokens).
		Str("stop_reason", string(msg.StopReason)).
		Msg("message")

	return sb.String(), nil
}

// APIError represents an error from the Anthropic API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func wrapAPIError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    fmt.Sprintf("anthropic API error (HTTP %d): %v", apiErr.StatusCode, apiErr),
		}
	}
	return fmt.Errorf("anthropic: %w", err)
}

// MockMessageClient is a mock implementation of MessageClient for testing.
type MockMessageClient struct {
	NewFn func(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error)
}

func (m *MockMessageClient) New(ctx context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	return m.NewFn(ctx, params)
}
