package autoeval

import (
	"context"
	"fmt"
)

// ScenarioReports holds the raw evaluation reports of one scenario.
type ScenarioReports struct {
	Accuracy     string
	Completeness string
}

// Evaluator builds evaluation prompts, delegates them to an Executor and
// parses the resulting reports. It performs no I/O of its own.
type Evaluator struct {
	executor Executor
	parser   ReportParser
	markdown MarkdownParser
	format   ReportFormat
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithFormat selects the report format requested from the model.
func WithFormat(f ReportFormat) EvaluatorOption {
	return func(e *Evaluator) {
		e.format = f
	}
}

// WithMarkdownParser sets the parser used for markdown reports. It is
// required to grade reports when the format is FormatMarkdown.
func WithMarkdownParser(p MarkdownParser) EvaluatorOption {
	return func(e *Evaluator) {
		e.markdown = p
	}
}

// NewEvaluator creates an Evaluator. Reports are requested as JSON unless
// WithFormat says otherwise.
func NewEvaluator(executor Executor, parser ReportParser, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		executor: executor,
		parser:   parser,
		format:   FormatJSON,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format returns the report format the evaluator requests.
func (e *Evaluator) Format() ReportFormat {
	return e.format
}

// EvaluateMetric renders the prompt for steps and answer and returns the
// executor's report unmodified. Executor errors are returned as-is.
func (e *Evaluator) EvaluateMetric(ctx context.Context, steps []CriterionEvalStep, answer string) (string, error) {
	prompt, err := e.buildPrompt(steps, answer)
	if err != nil {
		return "", err
	}
	return e.executor.Execute(ctx, prompt)
}

func (e *Evaluator) buildPrompt(steps []CriterionEvalStep, answer string) (string, error) {
	if e.format == FormatMarkdown {
		return BuildMarkdownPrompt(steps, answer)
	}
	return BuildPrompt(steps, answer)
}

// GradeMetric parses an evaluation report in the evaluator's format.
// Markdown steps keep the weights the parser assigns.
func (e *Evaluator) GradeMetric(report string) (*GradingResult, error) {
	if e.format != FormatMarkdown {
		return e.parser.Parse(report)
	}
	parsed, err := e.parseMarkdown(report, nil)
	if err != nil {
		return nil, err
	}
	return parsed.GradingResult(), nil
}

// Grade scores report for metric. Markdown step weights are taken from
// steps by criterion name, and the summary pass rate is kept when the
// report has one.
func (e *Evaluator) Grade(metric, report string, steps []CriterionEvalStep) (MetricResult, error) {
	result := MetricResult{Metric: metric}

	if e.format != FormatMarkdown {
		graded, err := e.parser.Parse(report)
		if err != nil {
			return result, err
		}
		result.Score = graded.Score()
		result.Steps = graded.Steps()
		return result, nil
	}

	parsed, err := e.parseMarkdown(report, StepWeights(steps))
	if err != nil {
		return result, err
	}
	result.Score = parsed.WeightedScore()
	result.Steps = parsed.GradingResult().Steps()
	if rate, err := parsed.PassRate(); err == nil {
		result.PassRate = &rate
	}
	return result, nil
}

func (e *Evaluator) parseMarkdown(report string, overrides []EvaluationStep) (*EvaluationReport, error) {
	if e.markdown == nil {
		return nil, ErrNoMarkdownParser
	}
	return e.markdown.Parse(report, overrides)
}

// EvaluateScenario produces the completeness and accuracy reports for answer.
func (e *Evaluator) EvaluateScenario(ctx context.Context, criteria *Criteria, answer string) (ScenarioReports, error) {
	var reports ScenarioReports

	completeness, err := e.EvaluateMetric(ctx, criteria.EvaluationSteps.Completeness, answer)
	if err != nil {
		return reports, err
	}
	reports.Completeness = completeness

	accuracy, err := e.EvaluateMetric(ctx, criteria.EvaluationSteps.Accuracy, answer)
	if err != nil {
		return reports, err
	}
	reports.Accuracy = accuracy

	return reports, nil
}

// GradeScenario parses both reports of a scenario in the evaluator's format.
func (e *Evaluator) GradeScenario(reports ScenarioReports) (accuracy, completeness *GradingResult, err error) {
	accuracy, err = e.GradeMetric(reports.Accuracy)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", MetricAccuracy, err)
	}
	completeness, err = e.GradeMetric(reports.Completeness)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", MetricCompleteness, err)
	}
	return accuracy, completeness, nil
}
