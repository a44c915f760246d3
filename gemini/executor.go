package gemini

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/autoeval"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface verification.
var _ autoeval.Executor = (*Executor)(nil)

// DefaultTimeout is the default timeout for a single model call.
const DefaultTimeout = 5 * time.Minute

const tracerName = "github.com/fwojciec/autoeval/gemini"

// Executor implements autoeval.Executor with one GenerateContent call per prompt.
type Executor struct {
	client  GenerativeClient
	model   string
	config  GenerateContentConfig
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the timeout for API calls. Zero disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) ExecutorOption {
	return func(e *Executor) {
		e.config.Temperature = &t
	}
}

// WithThinkingLevel sets the model thinking level ("MINIMAL" to "HIGH").
func WithThinkingLevel(level string) ExecutorOption {
	return func(e *Executor) {
		e.config.ThinkingLevel = level
	}
}

// WithReportSchema constrains replies to the JSON evaluation report shape.
// Use it only for prompts built in the JSON report format.
func WithReportSchema() ExecutorOption {
	return func(e *Executor) {
		e.config.ResponseMIMEType = "application/json"
		e.config.ResponseSchema = ReportSchema()
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger zerolog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(client GenerativeClient, model string, opts ...ExecutorOption) *Executor {
	if model == "" {
		model = DefaultModel
	}
	e := &Executor{
		client:  client,
		model:   model,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute sends prompt as a single user turn and returns the reply text.
func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "gemini.execute", trace.WithAttributes(
		attribute.String("model", e.model),
	))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	config := e.config
	contents := []*Content{{Parts: []*Part{{Text: prompt}}}}

	start := time.Now()
	resp, err := e.client.GenerateContent(ctx, e.model, contents, &config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if resp == nil {
		err := errors.New("gemini: returned nil response")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	e.logger.Debug().
		Str("model", e.model).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(resp.Text)).
		Msg("generate content")

	return resp.Text, nil
}
