package autoeval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/jsonreport"
	"github.com/fwojciec/autoeval/markdown"
	"github.com/fwojciec/autoeval/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCriteria(t *testing.T) *autoeval.Criteria {
	t.Helper()

	criteria, err := autoeval.NewCriteria(autoeval.CriteriaEvalSteps{
		Accuracy:     []autoeval.CriterionEvalStep{{Criterion: "accuracy criterion", Weight: 1}},
		Completeness: []autoeval.CriterionEvalStep{{Criterion: "completeness criterion", Weight: 2}},
	}, autoeval.CriteriaMeta{Category: "test", ScenarioID: 1})
	require.NoError(t, err)
	return criteria
}

func TestEvaluator_EvaluateMetric(t *testing.T) {
	t.Parallel()

	t.Run("returns executor output unmodified", func(t *testing.T) {
		t.Parallel()

		var gotPrompt string
		executor := &mock.Executor{
			ExecuteFn: func(_ context.Context, prompt string) (string, error) {
				gotPrompt = prompt
				return "  raw report \n", nil
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		report, err := evaluator.EvaluateMetric(context.Background(), []autoeval.CriterionEvalStep{{Criterion: "c", Weight: 1}}, "my answer")

		require.NoError(t, err)
		assert.Equal(t, "  raw report \n", report)
		assert.Contains(t, gotPrompt, "my answer")
		assert.Contains(t, gotPrompt, "- criterion: c")
	})

	t.Run("propagates executor error unchanged", func(t *testing.T) {
		t.Parallel()

		execErr := errors.New("model unavailable")
		executor := &mock.Executor{
			ExecuteFn: func(context.Context, string) (string, error) {
				return "", execErr
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		_, err := evaluator.EvaluateMetric(context.Background(), []autoeval.CriterionEvalStep{{Criterion: "c", Weight: 1}}, "a")

		assert.Same(t, execErr, err)
	})

	t.Run("rejects empty steps without calling executor", func(t *testing.T) {
		t.Parallel()

		executor := &mock.Executor{
			ExecuteFn: func(context.Context, string) (string, error) {
				t.Fatal("executor must not be called")
				return "", nil
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		_, err := evaluator.EvaluateMetric(context.Background(), nil, "a")

		assert.ErrorIs(t, err, autoeval.ErrEmptyCriteria)
	})

	t.Run("markdown format uses markdown prompt", func(t *testing.T) {
		t.Parallel()

		var gotPrompt string
		executor := &mock.Executor{
			ExecuteFn: func(_ context.Context, prompt string) (string, error) {
				gotPrompt = prompt
				return "", nil
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser(), autoeval.WithFormat(autoeval.FormatMarkdown))

		_, err := evaluator.EvaluateMetric(context.Background(), []autoeval.CriterionEvalStep{{Criterion: "c", Weight: 1}}, "a")

		require.NoError(t, err)
		assert.Equal(t, autoeval.FormatMarkdown, evaluator.Format())
		assert.Contains(t, gotPrompt, "EVALUATION REPORT:")
		assert.NotContains(t, gotPrompt, "- criterion: c")
	})

	t.Run("accepts an ExecutorFunc", func(t *testing.T) {
		t.Parallel()

		executor := autoeval.ExecutorFunc(func(context.Context, string) (string, error) {
			return "ok", nil
		})
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		report, err := evaluator.EvaluateMetric(context.Background(), []autoeval.CriterionEvalStep{{Criterion: "c", Weight: 1}}, "a")

		require.NoError(t, err)
		assert.Equal(t, "ok", report)
		assert.Equal(t, autoeval.FormatJSON, evaluator.Format())
	})
}

func TestEvaluator_EvaluateScenario(t *testing.T) {
	t.Parallel()

	t.Run("evaluates completeness before accuracy", func(t *testing.T) {
		t.Parallel()

		var order []string
		executor := &mock.Executor{
			ExecuteFn: func(_ context.Context, prompt string) (string, error) {
				if strings.Contains(prompt, "completeness criterion") {
					order = append(order, autoeval.MetricCompleteness)
					return "completeness report", nil
				}
				order = append(order, autoeval.MetricAccuracy)
				return "accuracy report", nil
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		reports, err := evaluator.EvaluateScenario(context.Background(), testCriteria(t), "answer")

		require.NoError(t, err)
		assert.Equal(t, []string{autoeval.MetricCompleteness, autoeval.MetricAccuracy}, order)
		assert.Equal(t, "accuracy report", reports.Accuracy)
		assert.Equal(t, "completeness report", reports.Completeness)
	})

	t.Run("stops at first executor error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		executor := &mock.Executor{
			ExecuteFn: func(context.Context, string) (string, error) {
				calls++
				return "", context.DeadlineExceeded
			},
		}
		evaluator := autoeval.NewEvaluator(executor, jsonreport.NewParser())

		_, err := evaluator.EvaluateScenario(context.Background(), testCriteria(t), "answer")

		assert.Equal(t, context.DeadlineExceeded, err)
		assert.Equal(t, 1, calls)
	})
}

func TestEvaluator_GradeScenario(t *testing.T) {
	t.Parallel()

	t.Run("parses both reports", func(t *testing.T) {
		t.Parallel()

		evaluator := autoeval.NewEvaluator(&mock.Executor{}, jsonreport.NewParser())

		accuracy, completeness, err := evaluator.GradeScenario(autoeval.ScenarioReports{
			Accuracy:     `{"evaluation_steps":[{"criterion":"a","weight":1,"passed":true,"explanation":""}]}`,
			Completeness: `{"evaluation_steps":[{"criterion":"a","weight":1,"passed":false,"explanation":""}]}`,
		})

		require.NoError(t, err)
		assert.Equal(t, 1.0, accuracy.Score())
		assert.Equal(t, 0.0, completeness.Score())
	})

	t.Run("names the failing metric", func(t *testing.T) {
		t.Parallel()

		evaluator := autoeval.NewEvaluator(&mock.Executor{}, jsonreport.NewParser())

		accuracy, completeness, err := evaluator.GradeScenario(autoeval.ScenarioReports{
			Accuracy:     `{"evaluation_steps":[]}`,
			Completeness: "not json",
		})

		assert.Nil(t, accuracy)
		assert.Nil(t, completeness)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "completeness: "))
		var malformed *autoeval.MalformedReportError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("delegates to the configured parser", func(t *testing.T) {
		t.Parallel()

		parser := &mock.ReportParser{
			ParseFn: func(report string) (*autoeval.GradingResult, error) {
				result := autoeval.NewGradingResult()
				result.AddEvalStep(autoeval.CriterionEvalStepProcessed{
					CriterionEvalStep: autoeval.CriterionEvalStep{Criterion: report, Weight: 1},
					Passed:            true,
				})
				return result, nil
			},
		}
		evaluator := autoeval.NewEvaluator(&mock.Executor{}, parser)

		result, err := evaluator.GradeMetric("anything")

		require.NoError(t, err)
		assert.Equal(t, "anything", result.Steps()[0].Criterion)
	})
}

const markdownReport = `- **Pass** (95%): Uses the correct algorithm
- **Fail** (80%): Handles empty input

    Panics on an empty slice.

---

Total steps evaluated: 2
Number of passed steps: 1
Number of failed steps: 1
`

func markdownEvaluator(executor autoeval.Executor) *autoeval.Evaluator {
	return autoeval.NewEvaluator(executor, jsonreport.NewParser(),
		autoeval.WithFormat(autoeval.FormatMarkdown),
		autoeval.WithMarkdownParser(markdown.NewParser()),
	)
}

func TestEvaluator_MarkdownFormat(t *testing.T) {
	t.Parallel()

	t.Run("grades the reports it evaluated", func(t *testing.T) {
		t.Parallel()

		executor := &mock.Executor{
			ExecuteFn: func(context.Context, string) (string, error) {
				return markdownReport, nil
			},
		}
		evaluator := markdownEvaluator(executor)

		reports, err := evaluator.EvaluateScenario(context.Background(), testCriteria(t), "my answer")
		require.NoError(t, err)
		accuracy, completeness, err := evaluator.GradeScenario(reports)

		require.NoError(t, err)
		assert.Equal(t, 0.5, accuracy.Score())
		assert.Equal(t, 0.5, completeness.Score())
		steps := accuracy.Steps()
		require.Len(t, steps, 2)
		assert.Equal(t, "Uses the correct algorithm", steps[0].Criterion)
		assert.True(t, steps[0].Passed)
		assert.False(t, steps[1].Passed)
		assert.Equal(t, "Panics on an empty slice.", steps[1].Explanation)
	})

	t.Run("takes weights from criteria", func(t *testing.T) {
		t.Parallel()

		evaluator := markdownEvaluator(&mock.Executor{})

		result, err := evaluator.Grade(autoeval.MetricAccuracy, markdownReport, []autoeval.CriterionEvalStep{
			{Criterion: "uses the correct algorithm", Weight: 3},
			{Criterion: "Handles empty input", Weight: 1},
		})

		require.NoError(t, err)
		assert.Equal(t, autoeval.MetricAccuracy, result.Metric)
		assert.Equal(t, 0.75, result.Score)
		assert.Equal(t, 3.0, result.Steps[0].Weight)
		require.NotNil(t, result.PassRate)
		assert.Equal(t, 0.5, *result.PassRate)
	})

	t.Run("rejects a report without a summary", func(t *testing.T) {
		t.Parallel()

		evaluator := markdownEvaluator(&mock.Executor{})

		_, err := evaluator.GradeMetric("- **Pass** (90%): Uses the correct algorithm\n")

		var malformed *autoeval.MalformedReportError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("requires a markdown parser", func(t *testing.T) {
		t.Parallel()

		evaluator := autoeval.NewEvaluator(&mock.Executor{}, jsonreport.NewParser(), autoeval.WithFormat(autoeval.FormatMarkdown))

		_, err := evaluator.GradeMetric(markdownReport)

		assert.ErrorIs(t, err, autoeval.ErrNoMarkdownParser)
	})
}

func TestEvaluator_Grade_JSON(t *testing.T) {
	t.Parallel()

	evaluator := autoeval.NewEvaluator(&mock.Executor{}, jsonreport.NewParser())

	result, err := evaluator.Grade(autoeval.MetricCompleteness,
		`{"evaluation_steps":[{"criterion":"a","weight":3,"passed":true,"explanation":""},{"criterion":"b","weight":1,"passed":false,"explanation":""}]}`,
		nil)

	require.NoError(t, err)
	assert.Equal(t, autoeval.MetricCompleteness, result.Metric)
	assert.Equal(t, 0.75, result.Score)
	assert.Len(t, result.Steps, 2)
	assert.Nil(t, result.PassRate)
}
