package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/anthropic"
	"github.com/fwojciec/autoeval/fs"
	"github.com/fwojciec/autoeval/gemini"
	"github.com/fwojciec/autoeval/openai"
	"github.com/fwojciec/autoeval/prometheus"
	"github.com/rs/zerolog"
)

// ErrGradingUnsupported is returned when probability grading is requested
// from a provider that does not expose token log-probabilities.
var ErrGradingUnsupported = errors.New("probability grading requires the openai or azure provider")

// modelName returns the configured model or the provider default.
func modelName(cfg Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		return anthropic.DefaultModel
	case ProviderGemini:
		return gemini.DefaultModel
	default:
		return openai.DefaultModel
	}
}

// newExecutor builds the executor for the configured provider, instrumented
// with m and, unless disabled, backed by the response cache.
func newExecutor(ctx context.Context, cfg Config, logger zerolog.Logger, m *prometheus.Metrics) (autoeval.Executor, error) {
	model := modelName(cfg)

	var executor autoeval.Executor
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAzure:
		client, err := openai.NewClient(openAIClientConfig(cfg))
		if err != nil {
			return nil, err
		}
		opts := []openai.Option{openai.WithLogger(logger)}
		if cfg.Temperature != nil {
			opts = append(opts, openai.WithTemperature(float32(*cfg.Temperature)))
		}
		executor = openai.NewExecutor(client, model, opts...)
	case ProviderAnthropic:
		client, err := anthropic.NewClient(cfg.AnthropicAPIKey, "")
		if err != nil {
			return nil, err
		}
		opts := []anthropic.ExecutorOption{anthropic.WithLogger(logger)}
		if cfg.Temperature != nil {
			opts = append(opts, anthropic.WithTemperature(*cfg.Temperature))
		}
		executor = anthropic.NewExecutor(client, model, opts...)
	case ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		opts := []gemini.ExecutorOption{gemini.WithLogger(logger)}
		if cfg.Temperature != nil {
			opts = append(opts, gemini.WithTemperature(float32(*cfg.Temperature)))
		}
		if cfg.Format == autoeval.FormatJSON {
			opts = append(opts, gemini.WithReportSchema())
		}
		executor = gemini.NewExecutor(client, model, opts...)
	default:
		return nil, errors.New("unknown provider: " + cfg.Provider)
	}

	executor = m.NewExecutor(executor, cfg.Provider, model)
	if cfg.NoCache {
		return executor, nil
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(fs.DefaultCacheDir(), "responses")
	}
	return fs.NewExecutor(executor, cacheDir, fs.WithNamespace(cfg.Provider+"/"+model+"/"+string(cfg.Format))), nil
}

// newGrader builds the log-probability grader, instrumented with m.
func newGrader(cfg Config, logger zerolog.Logger, m *prometheus.Metrics) (autoeval.Grader, error) {
	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderAzure {
		return nil, ErrGradingUnsupported
	}
	client, err := openai.NewClient(openAIClientConfig(cfg))
	if err != nil {
		return nil, err
	}
	model := cfg.GradingModel
	if model == "" {
		model = openai.DefaultGradingModel
	}
	return m.NewGrader(openai.NewGrader(client, model, openai.WithLogger(logger)), cfg.Provider, model), nil
}

func openAIClientConfig(cfg Config) openai.ClientConfig {
	if cfg.Provider == ProviderAzure {
		return openai.ClientConfig{
			APIKey:          cfg.AzureAPIKey,
			AzureEndpoint:   cfg.AzureEndpoint,
			AzureAPIVersion: cfg.AzureAPIVersion,
		}
	}
	return openai.ClientConfig{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}
}
