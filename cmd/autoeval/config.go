package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fwojciec/autoeval"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds runtime configuration from flags, AUTOEVAL_* environment
// variables and an optional .env file, in that order of precedence.
type Config struct {
	Provider     string
	Model        string
	GradingModel string
	Temperature  *float64 // nil leaves the provider default

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AzureAPIKey     string
	AzureEndpoint   string
	AzureAPIVersion string
	AnthropicAPIKey string
	GeminiAPIKey    string

	CacheDir string
	NoCache  bool
	Workers  int
	Format   autoeval.ReportFormat
	LogLevel zerolog.Level
}

// newViper creates a viper instance reading AUTOEVAL_* variables and bound
// to the persistent flags of cmd.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AUTOEVAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("workers", 1)
	v.SetDefault("format", string(autoeval.FormatJSON))
	v.SetDefault("log_level", "info")
	v.SetDefault("azure_api_version", "")

	// Fall back to the variables the provider SDKs document.
	envFallbacks := map[string]string{
		"openai_api_key":    "OPENAI_API_KEY",
		"azure_api_key":     "AZURE_API_KEY",
		"anthropic_api_key": "ANTHROPIC_API_KEY",
		"gemini_api_key":    "GEMINI_API_KEY",
	}
	for key, env := range envFallbacks {
		if err := v.BindEnv(key, "AUTOEVAL_"+strings.ToUpper(key), env); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{
		"provider", "model", "grading-model", "temperature",
		"cache-dir", "no-cache", "workers", "format", "log-level",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flag); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// LoadConfig reads and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (Config, error) {
	format, err := autoeval.ParseReportFormat(v.GetString("format"))
	if err != nil {
		return Config{}, err
	}
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log_level")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := Config{
		Provider:        strings.ToLower(v.GetString("provider")),
		Model:           v.GetString("model"),
		GradingModel:    v.GetString("grading_model"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		AzureAPIKey:     v.GetString("azure_api_key"),
		AzureEndpoint:   v.GetString("azure_endpoint"),
		AzureAPIVersion: v.GetString("azure_api_version"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		GeminiAPIKey:    v.GetString("gemini_api_key"),
		CacheDir:        v.GetString("cache_dir"),
		NoCache:         v.GetBool("no_cache"),
		Workers:         v.GetInt("workers"),
		Format:          format,
		LogLevel:        level,
	}
	if raw := strings.TrimSpace(v.GetString("temperature")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 {
			return Config{}, fmt.Errorf("invalid temperature %q", raw)
		}
		cfg.Temperature = &t
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderAzure, ProviderAnthropic, ProviderGemini:
	default:
		return Config{}, fmt.Errorf("unknown provider %q (want openai, azure, anthropic or gemini)", cfg.Provider)
	}
	if cfg.Provider == ProviderAzure && cfg.AzureEndpoint == "" {
		return Config{}, fmt.Errorf("azure provider requires AUTOEVAL_AZURE_ENDPOINT")
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

// newLogger returns a console logger writing to w at level.
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
