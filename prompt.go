package autoeval

import (
	"fmt"
	"strconv"
	"strings"
)

// ReportFormat selects the evaluation report grammar a model is asked for.
type ReportFormat string

// Report formats.
const (
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
)

// ParseReportFormat converts s into a ReportFormat.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json or markdown)", s)
	}
}

// EvaluationPrompt asks for a JSON evaluation report. Placeholders: {answer}, {steps}.
const EvaluationPrompt = `Evaluate the answer below against each of the evaluation steps.

Each evaluation step has a criterion and a weight. Judge every criterion
independently and decide whether the answer satisfies it. Do not skip,
merge or reorder the steps, and copy each criterion and weight exactly as
given.

For every step report:
- "criterion": the criterion text
- "weight": the weight of the step
- "passed": true if the answer satisfies the criterion, false otherwise
- "confidence": how confident you are in the verdict, from 0 to 100
- "explanation": a short justification of the verdict

Respond with a single JSON document of this shape and nothing else:

{
  "evaluation_steps": [
    {
      "criterion": "Verify the function has a docstring",
      "weight": 1.0,
      "passed": true,
      "confidence": 100,
      "explanation": "The function documents its arguments and return value."
    }
  ]
}

ANSWER:

{answer}

EVALUATION STEPS:

{steps}
`

// MarkdownEvaluationPrompt asks for a markdown evaluation report. Placeholders: {answer}, {steps}.
const MarkdownEvaluationPrompt = `Evaluate the answer according to the evaluation steps.

Output a Markdown evaluation report. Prefix each step with **Pass** when the
answer satisfies it or **Fail** when it does not, followed by your
confidence in that verdict as a percentage (0-100%) in brackets. When you
are less than 100% confident, explain why on the lines below the step.

End the report with a line containing only ---, followed by the total
number of steps evaluated, the number of passed steps and the number of
failed steps.

Example:

ANSWER:

    def sum_integers(a, b):
        """Return the sum of a and b."""
        return a + b

EVALUATION STEPS:

- Verify the function code is written in Python
- Verify the function has a docstring
- Verify the function has type hints

EVALUATION REPORT:

# Evaluation Report

- **Pass** (100%): Verify the function code is written in Python
- **Pass** (100%): Verify the function has a docstring
- **Fail** (95%): Verify the function has type hints

    The signature def sum_integers(a, b) declares no parameter or return
    annotations.

---

Total steps evaluated: 3
Number of passed steps: 2
Number of failed steps: 1

Now evaluate the following.

ANSWER:

{answer}

EVALUATION STEPS:

{steps}

EVALUATION REPORT:
`

// GradingPrompt asks for a single 1-5 grade of an evaluation report. Placeholder: {report}.
const GradingPrompt = `Grade the answer based on the evaluation report below.

The grade scale is 1 to 5, where 1 is the lowest and 5 the highest.

Consider the number of passed versus failed steps and the severity of each
failure:
- Low severity: formatting issues, leftover non-critical TODOs, naming drift.
- Medium severity: missing or incorrect error handling, inefficient but
  acceptable algorithms, incomplete documentation.
- High severity: wrong results, security vulnerabilities, missing core
  functionality, major incompatibility with required frameworks.

Scoring guide:
5: all steps passed, or only low severity failures
4: mostly passed with one or two low failures or a single medium failure
3: several failures mixing low and medium severity
2: multiple failures including one or two high severity issues
1: most steps failed, or three or more high severity issues

EVALUATION REPORT:

{report}

Output only one number from 1 to 5 representing the grade.
`

// BuildPrompt renders EvaluationPrompt for steps and answer.
func BuildPrompt(steps []CriterionEvalStep, answer string) (string, error) {
	if len(steps) == 0 {
		return "", ErrEmptyCriteria
	}
	var sb strings.Builder
	for i, step := range steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- criterion: %s\n  weight: %s", step.Criterion, formatWeight(step.Weight))
	}
	return render(EvaluationPrompt, answer, sb.String()), nil
}

// BuildMarkdownPrompt renders MarkdownEvaluationPrompt for steps and answer.
func BuildMarkdownPrompt(steps []CriterionEvalStep, answer string) (string, error) {
	if len(steps) == 0 {
		return "", ErrEmptyCriteria
	}
	lines := make([]string, len(steps))
	for i, step := range steps {
		lines[i] = "- " + step.Criterion
	}
	return render(MarkdownEvaluationPrompt, answer, strings.Join(lines, "\n")), nil
}

// BuildGradingPrompt renders GradingPrompt for report.
func BuildGradingPrompt(report string) string {
	return strings.NewReplacer("{report}", report).Replace(GradingPrompt)
}

// render substitutes placeholders in a single pass so that braces inside
// the answer are never re-expanded.
func render(template, answer, steps string) string {
	return strings.NewReplacer("{answer}", answer, "{steps}", steps).Replace(template)
}

func formatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
