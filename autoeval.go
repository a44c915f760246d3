// Package autoeval provides domain types for grading LLM answers against
// weighted, human-authored criteria.
package autoeval

import (
	"context"
	"time"
)

// Metric names used for the two criteria lists of a scenario.
const (
	MetricAccuracy     = "accuracy"
	MetricCompleteness = "completeness"
)

// Executor turns a rendered prompt into raw model output.
// Implementations may call a hosted model, replay a fixture, or return canned text.
type Executor interface {
	// Execute returns the model response for prompt, unmodified.
	Execute(ctx context.Context, prompt string) (string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, prompt string) (string, error)

// Execute calls f(ctx, prompt).
func (f ExecutorFunc) Execute(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ReportParser turns a model-produced JSON evaluation report into a GradingResult.
type ReportParser interface {
	Parse(report string) (*GradingResult, error)
}

// Grader produces a 1-5 grade distribution for an evaluation report.
type Grader interface {
	Grade(ctx context.Context, report string) (*Distribution, error)
}

// CriteriaLoader builds Criteria from a criteria document.
type CriteriaLoader interface {
	Load(document string) (*Criteria, error)
}

// MetricResult is the graded outcome of one metric of a scenario.
type MetricResult struct {
	Metric   string                       `json:"metric"`
	Score    float64                      `json:"score"`
	Steps    []CriterionEvalStepProcessed `json:"steps,omitempty"`
	PassRate *float64                     `json:"pass_rate,omitempty"` // Only set for markdown reports
	Grade    *Distribution                `json:"grade,omitempty"`     // Only set when probability grading ran
}

// ScenarioResult collects the metric results of a single scenario.
type ScenarioResult struct {
	ScenarioID int            `json:"scenario_id"`
	Metadata   CriteriaMeta   `json:"metadata"`
	Metrics    []MetricResult `json:"metrics"`
}

// Metric returns the result for the named metric, or nil if absent.
func (r ScenarioResult) Metric(name string) *MetricResult {
	for i := range r.Metrics {
		if r.Metrics[i].Metric == name {
			return &r.Metrics[i]
		}
	}
	return nil
}

// Run is one invocation of the evaluation pipeline over a dataset.
type Run struct {
	ID        string
	StartedAt time.Time
	Revision  string // Dataset commit when the data directory is a git checkout
	Results   []ScenarioResult
}

// MarkdownParser parses markdown evaluation reports. Overrides, when given,
// replace the weights of matching steps.
type MarkdownParser interface {
	Parse(text string, overrides []EvaluationStep) (*EvaluationReport, error)
}

// RevisionReader reports the version-control revision of a directory.
type RevisionReader interface {
	Revision(ctx context.Context, dir string) (string, error)
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}

// ResultSaver appends scenario results to a log.
type ResultSaver interface {
	Save(path string, result ScenarioResult) error
}

// ResultLoader reads scenario results back from a log.
type ResultLoader interface {
	Load(path string) ([]ScenarioResult, error)
}

// ReportWriter writes a flattened grading report.
type ReportWriter interface {
	Write(path string, results []ScenarioResult) error
}

// RunStore persists and retrieves runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	FindRun(ctx context.Context, id string) (*Run, error)
	// LatestRunID returns the id of the most recently started run, or
	// ErrRunNotFound when there is none.
	LatestRunID(ctx context.Context) (string, error)
}
