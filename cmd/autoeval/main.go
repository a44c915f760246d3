package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/bubbletea"
	"github.com/fwojciec/autoeval/chroma"
	"github.com/fwojciec/autoeval/clipboard"
	"github.com/fwojciec/autoeval/csv"
	"github.com/fwojciec/autoeval/fs"
	"github.com/fwojciec/autoeval/git"
	"github.com/fwojciec/autoeval/jsonl"
	"github.com/fwojciec/autoeval/jsonreport"
	"github.com/fwojciec/autoeval/lipgloss"
	"github.com/fwojciec/autoeval/markdown"
	"github.com/fwojciec/autoeval/prometheus"
	"github.com/fwojciec/autoeval/sqlite"
	"github.com/fwojciec/autoeval/yaml"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Default file names written into the data directory.
const (
	DefaultReportFile  = "grades.csv"
	DefaultResultsFile = "results.jsonl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoeval",
		Short: "Grade LLM answers against weighted criteria",
		Long: `autoeval evaluates model answers in a scenario dataset against the
weighted accuracy and completeness criteria of each scenario.

A dataset is a directory of numbered scenario directories, each holding
input.txt, meta.yaml (criteria) and output.md (the answer to grade).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("provider", ProviderOpenAI, "Model provider: openai, azure, anthropic or gemini")
	flags.String("model", "", "Evaluation model (provider default when empty)")
	flags.String("grading-model", "", "Model used for probability grading")
	flags.String("temperature", "", "Sampling temperature (provider default when empty)")
	flags.String("cache-dir", "", "Response cache directory")
	flags.Bool("no-cache", false, "Disable the response cache")
	flags.Int("workers", 1, "Number of scenarios evaluated concurrently")
	flags.String("format", string(autoeval.FormatJSON), "Evaluation report format: json or markdown")
	flags.String("log-level", "info", "Log level")

	cmd.AddCommand(
		buildEvaluateCmd(),
		buildGradeCmd(),
		buildSummaryCmd(),
		buildReviewCmd(),
	)
	return cmd
}

// pipelineOptions are the flags shared by evaluate and grade.
type pipelineOptions struct {
	DataDir            string
	ReportPath         string
	Scenarios          int
	ScenarioRanges     string
	ResultsPath        string
	DBPath             string
	MetricsFile        string
	GradeProbabilities bool
}

func (o *pipelineOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DataDir, "data-dir", "", "Root directory of the evaluated dataset")
	cmd.Flags().StringVar(&o.ReportPath, "report-path", "", "CSV grading report path (default <data-dir>/grades.csv)")
	cmd.Flags().IntVar(&o.Scenarios, "scenarios", 0, "Number of scenarios to evaluate, starting at 1")
	cmd.Flags().StringVar(&o.ScenarioRanges, "scenario-ranges", "", "Scenarios to evaluate, e.g. 1,3,5-10")
	cmd.Flags().StringVar(&o.ResultsPath, "results", "", "JSONL results log (default <data-dir>/results.jsonl)")
	cmd.Flags().StringVar(&o.DBPath, "db", "", "SQLite database recording the run")
	cmd.Flags().StringVar(&o.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&o.GradeProbabilities, "grade-probabilities", false, "Also grade each report 1-5 from token log-probabilities")
	_ = cmd.MarkFlagRequired("data-dir")
	cmd.MarkFlagsMutuallyExclusive("scenarios", "scenario-ranges")
	cmd.MarkFlagsOneRequired("scenarios", "scenario-ranges")
}

func (o *pipelineOptions) scenarioIDs() ([]int, error) {
	if o.ScenarioRanges != "" {
		return ParseScenarioRanges(o.ScenarioRanges)
	}
	return ScenarioCount(o.Scenarios)
}

func buildEvaluateCmd() *cobra.Command {
	var opts pipelineOptions
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate scenario answers with a model and grade the reports",
		Long: `Evaluate every selected scenario with the configured model, write the
accuracy.md and completeness.md reports next to the answer, and grade them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, false)
		},
	}
	opts.register(cmd)
	return cmd
}

func buildGradeCmd() *cobra.Command {
	var opts pipelineOptions
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade existing evaluation reports without calling a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, true)
		},
	}
	opts.register(cmd)
	return cmd
}

func runPipeline(cmd *cobra.Command, opts pipelineOptions, reuse bool) error {
	ctx := cmd.Context()

	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(v)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	ids, err := opts.scenarioIDs()
	if err != nil {
		return err
	}
	dataDir, err := fs.ValidateDataDir(opts.DataDir)
	if err != nil {
		return err
	}
	reportPath := filepath.Join(dataDir, DefaultReportFile)
	if opts.ReportPath != "" {
		if reportPath, err = fs.ValidateReportPath(opts.ReportPath); err != nil {
			return err
		}
	}

	scenarios, missed, err := fs.NewDataset(dataDir, fs.WithLogger(logger)).Scenarios(ids)
	if err != nil {
		return err
	}

	metrics := prometheus.NewMetrics(prom.NewRegistry())

	var executor autoeval.Executor
	if !reuse {
		if executor, err = newExecutor(ctx, cfg, logger, metrics); err != nil {
			return err
		}
	}
	runner := &Runner{
		Evaluator: autoeval.NewEvaluator(executor, jsonreport.NewParser(),
			autoeval.WithFormat(cfg.Format),
			autoeval.WithMarkdownParser(markdown.NewParser()),
		),
		Criteria: yaml.NewLoader(),
		Reuse:    reuse,
		Workers:  cfg.Workers,
		Logger:   logger,
	}
	if opts.GradeProbabilities {
		if runner.Grader, err = newGrader(cfg, logger, metrics); err != nil {
			return err
		}
	}

	run := &autoeval.Run{StartedAt: time.Now().UTC()}
	run.Revision = DatasetRevision(ctx, git.NewRunner(), dataDir, logger)
	logger.Info().Int("scenarios", len(scenarios)).Str("format", string(cfg.Format)).Msg("grading")
	if run.Results, err = runner.Run(ctx, scenarios); err != nil {
		return err
	}

	resultsPath := opts.ResultsPath
	if resultsPath == "" {
		resultsPath = filepath.Join(dataDir, DefaultResultsFile)
	}
	recorder := &Recorder{
		Saver:  jsonl.NewSaver(),
		Writer: csv.NewWriter(),
		Logger: logger,
	}
	if opts.DBPath != "" {
		store, err := sqlite.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder.Store = store
	}
	if err := recorder.Record(ctx, run, resultsPath, reportPath); err != nil {
		return err
	}
	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return err
		}
	}
	if len(missed) > 0 {
		logger.Warn().Ints("scenarios", missed).Msg("missed scenarios")
	}
	return nil
}

func buildSummaryCmd() *cobra.Command {
	var resultsPath, dbPath, runID string
	var light bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Render a summary of graded results",
		Long: `Render graded results as a table with per-metric averages.

Results come from a JSONL results log (--results) or from a run recorded
in a SQLite database (--db, latest run unless --run is given).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := loadResults(cmd.Context(), resultsPath, dbPath, runID)
			if err != nil {
				return err
			}
			theme := lipgloss.DefaultTheme()
			if light {
				theme = lipgloss.LightTheme()
			}
			summary := lipgloss.NewSummary(
				lipgloss.WithRenderer(lg.NewRenderer(cmd.OutOrStdout())),
				lipgloss.WithTheme(theme),
			)
			fmt.Fprintln(cmd.OutOrStdout(), summary.Render(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&resultsPath, "results", "", "JSONL results log")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run database")
	cmd.Flags().StringVar(&runID, "run", "", "Run id (latest run when empty)")
	cmd.Flags().BoolVar(&light, "light", false, "Use colors for light terminal backgrounds")
	cmd.MarkFlagsMutuallyExclusive("results", "db")
	cmd.MarkFlagsOneRequired("results", "db")
	return cmd
}

// loadResults reads results from the JSONL log at resultsPath, or from the
// SQLite database at dbPath when it is set.
func loadResults(ctx context.Context, resultsPath, dbPath, runID string) ([]autoeval.ScenarioResult, error) {
	source := &ResultSource{Loader: jsonl.NewLoader(jsonl.WithLatestOnly())}
	if dbPath != "" {
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		source.Store = store
	}
	return source.Results(ctx, resultsPath, runID)
}

func buildReviewCmd() *cobra.Command {
	var resultsPath, dbPath, runID, dataDir string
	var light bool
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse graded results and their reports interactively",
		Long: `Browse graded results in a terminal UI. With --data-dir, the raw
accuracy.md and completeness.md reports are shown next to the graded steps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := loadResults(cmd.Context(), resultsPath, dbPath, runID)
			if err != nil {
				return err
			}
			scenarios := ReviewScenarios(results, dataDir)

			theme := lipgloss.DefaultTheme()
			if light {
				theme = lipgloss.LightTheme()
			}
			opts := []bubbletea.ReviewModelOption{
				bubbletea.WithTheme(theme),
				bubbletea.WithHighlighter(chroma.NewHighlighter(chroma.WithTheme(theme))),
			}
			if cb, err := clipboard.System(); err == nil {
				opts = append(opts, bubbletea.WithClipboard(cb))
			}
			m := bubbletea.NewReviewModel(scenarios, opts...)
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&resultsPath, "results", "", "JSONL results log")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run database")
	cmd.Flags().StringVar(&runID, "run", "", "Run id (latest run when empty)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Dataset directory holding the evaluation reports")
	cmd.Flags().BoolVar(&light, "light", false, "Use colors for light terminal backgrounds")
	cmd.MarkFlagsMutuallyExclusive("results", "db")
	cmd.MarkFlagsOneRequired("results", "db")
	return cmd
}

// ReviewScenarios pairs results with the reports stored under dataDir.
// Reports that cannot be read are left out.
func ReviewScenarios(results []autoeval.ScenarioResult, dataDir string) []bubbletea.Scenario {
	scenarios := make([]bubbletea.Scenario, len(results))
	for i, r := range results {
		scenarios[i] = bubbletea.Scenario{Result: r, Reports: map[string]string{}}
		if dataDir == "" {
			continue
		}
		s := fs.Scenario{ID: r.ScenarioID, Dir: filepath.Join(dataDir, strconv.Itoa(r.ScenarioID))}
		for _, m := range r.Metrics {
			if text, err := fs.ReadFile(s.ReportPath(m.Metric)); err == nil {
				scenarios[i].Reports[m.Metric] = text
			}
		}
	}
	return scenarios
}
