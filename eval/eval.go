// Package eval provides test helpers for asserting LLM output against
// weighted criteria with an LLM judge.
package eval

import (
	"os"
	"testing"

	"github.com/fwojciec/autoeval"
)

// Eval provides assertion helpers for LLM-based test evaluation.
type Eval struct {
	evaluator *autoeval.Evaluator
}

// New creates a new Eval that judges with executor and reads JSON reports with parser.
func New(executor autoeval.Executor, parser autoeval.ReportParser) *Eval {
	return &Eval{evaluator: autoeval.NewEvaluator(executor, parser)}
}

// AssertCriterion evaluates whether output satisfies a single criterion.
// If the criterion is not satisfied, the test is marked as failed.
func (e *Eval) AssertCriterion(tb testing.TB, criterion, output string) {
	tb.Helper()
	e.AssertCriteria(tb, []autoeval.CriterionEvalStep{{Criterion: criterion, Weight: 1}}, output, 1)
}

// AssertCriteria evaluates output against steps and fails the test when the
// weighted score is below minScore. Every failed step is reported.
func (e *Eval) AssertCriteria(tb testing.TB, steps []autoeval.CriterionEvalStep, output string, minScore float64) {
	tb.Helper()

	report, err := e.evaluator.EvaluateMetric(tb.Context(), steps, output)
	if err != nil {
		tb.Errorf("criteria evaluation failed: %v", err)
		return
	}
	result, err := e.evaluator.GradeMetric(report)
	if err != nil {
		tb.Errorf("criteria report could not be parsed: %v", err)
		return
	}

	score := result.Score()
	if score >= minScore {
		return
	}
	for _, step := range result.Steps() {
		if !step.Passed {
			tb.Errorf("criterion not satisfied: %q\nReasoning: %s", step.Criterion, step.Explanation)
		}
	}
	tb.Errorf("weighted score %.2f is below %.2f", score, minScore)
}

// SkipUnlessEvals skips the test unless GOEVALS environment variable is set.
// Use at the start of eval tests to make them opt-in.
func SkipUnlessEvals(tb testing.TB) {
	tb.Helper()
	if os.Getenv("GOEVALS") == "" {
		tb.Skip("GOEVALS not set")
	}
}
