package markdown_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `# Evaluation Report

- **Pass** (100%): Verify the function code is written in Python
- **Pass** (100%): Verify the function has a docstring
- **Fail** (100%): Verify the function has type hints

    The function ` + "`sum_integers`" + ` declares no annotations:

    def sum_integers(a, b):

    A typed signature would read def sum_integers(a: int, b: int) -> int.

- **Pass** (90%): Ensure the code is elegant

    The function is short and readable, although type hints would make
    the expected input and output types explicit.

---

Total steps evaluated: 4
Number of passed steps: 3
Number of failed steps: 1`

const completenessReport = `# Evaluation Report

- **Pass** (100%): Confirm the dropdown includes a search field
- **Pass** (100%): Check that the component is navigable via keyboard
- **Pass** (100%): Verify items can be selected with the Enter key
- **Pass** (90%): Ensure focus returns to the select after the dropdown closes

    The root element is focusable via tabIndex={0}, but nothing restores
    focus explicitly after closing.

- **Pass** (100%): Confirm the dropdown closes when Escape is pressed
- **Pass** (100%): Ensure the dropdown closes on outside click

---

Total steps evaluated: 6
Number of passed steps: 6
Number of failed steps: 0  `

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("preserves the raw text", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(sampleReport, nil)

		require.NoError(t, err)
		assert.Equal(t, sampleReport, report.Text)
	})

	t.Run("reads summary counters", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(sampleReport, nil)

		require.NoError(t, err)
		assert.Equal(t, 4, report.TotalSteps)
		assert.Equal(t, 3, report.PassedSteps)
		assert.Equal(t, 1, report.FailedSteps)

		rate, err := report.PassRate()
		require.NoError(t, err)
		assert.Equal(t, 0.75, rate)
	})

	t.Run("summary lines tolerate trailing whitespace", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(completenessReport, nil)

		require.NoError(t, err)
		assert.Equal(t, 6, report.TotalSteps)
		assert.Equal(t, 6, report.PassedSteps)
		assert.Equal(t, 0, report.FailedSteps)
		rate, err := report.PassRate()
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)
	})

	t.Run("parses steps with and without reasoning", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(sampleReport, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 4)

		python := report.Steps[0]
		assert.Equal(t, autoeval.StatusPass, python.Status)
		assert.Equal(t, 100, python.Confidence)
		assert.Equal(t, "Verify the function code is written in Python", python.Name)
		assert.Empty(t, python.Reasoning)
		assert.Equal(t, autoeval.DefaultStepWeight, python.Weight)

		hints := report.Steps[2]
		assert.Equal(t, autoeval.StatusFail, hints.Status)
		assert.Equal(t, "Verify the function has type hints", hints.Name)
		assert.Contains(t, hints.Reasoning, "The function `sum_integers`")
		assert.Contains(t, hints.Reasoning, "def sum_integers(a: int, b: int) -> int")

		elegant := report.Steps[3]
		assert.Equal(t, autoeval.StatusPass, elegant.Status)
		assert.Equal(t, 90, elegant.Confidence)
		assert.Contains(t, elegant.Reasoning, "short and readable")
	})

	t.Run("reasoning with braces and indentation", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(completenessReport, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 6)
		focus := report.Steps[3]
		assert.Equal(t, 90, focus.Confidence)
		assert.Contains(t, focus.Reasoning, "tabIndex={0}")
	})

	t.Run("applies weight overrides after parsing", func(t *testing.T) {
		t.Parallel()

		overrides := []autoeval.EvaluationStep{
			{Name: "Verify the function code is written in Python", Weight: 1.0},
			{Name: "Verify the function has a docstring", Weight: 2.0},
			{Name: "Verify the function has type hints", Weight: 3.0},
			{Name: "Ensure the code is elegant", Weight: 1.0},
		}

		report, err := markdown.NewParser().Parse(sampleReport, overrides)

		require.NoError(t, err)
		assert.InDelta(t, 4.0/7.0, report.WeightedScore(), 1e-9)
		assert.InDelta(t, 0.571, report.WeightedScore(), 1e-3)
	})

	t.Run("override matching ignores case and surrounding space", func(t *testing.T) {
		t.Parallel()

		overrides := []autoeval.EvaluationStep{
			{Name: "  VERIFY THE FUNCTION HAS TYPE HINTS ", Weight: 5.0},
		}

		report, err := markdown.NewParser().Parse(sampleReport, overrides)

		require.NoError(t, err)
		assert.Equal(t, 1.0, report.Steps[0].Weight)
		assert.Equal(t, 5.0, report.Steps[2].Weight)
	})

	t.Run("default weights make weighted score equal pass rate", func(t *testing.T) {
		t.Parallel()

		report, err := markdown.NewParser().Parse(sampleReport, nil)

		require.NoError(t, err)
		rate, err := report.PassRate()
		require.NoError(t, err)
		assert.Equal(t, rate, report.WeightedScore())
	})

	t.Run("missing separator is an error", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one

Total steps evaluated: 1
Number of passed steps: 1
Number of failed steps: 0`

		report, err := markdown.NewParser().Parse(text, nil)

		require.Error(t, err)
		assert.Nil(t, report)
		var malformed *autoeval.MalformedReportError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, text, malformed.Report)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("repeated separator is an error", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one
---
Total steps evaluated: 1
---
Number of passed steps: 1`

		_, err := markdown.NewParser().Parse(text, nil)

		var malformed *autoeval.MalformedReportError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("non-numeric summary counter is an error", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one
---
Total steps evaluated: four`

		_, err := markdown.NewParser().Parse(text, nil)

		var malformed *autoeval.MalformedReportError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, err.Error(), "Total steps evaluated:")
	})

	t.Run("summary counters in any order, last one wins", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one
- **Fail** (80%): Step two
---
Number of failed steps: 1
Total steps evaluated: 3
Number of passed steps: 1
Total steps evaluated: 2`

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalSteps)
		assert.Equal(t, 1, report.PassedSteps)
		assert.Equal(t, 1, report.FailedSteps)
	})

	t.Run("summary counters are not reconciled with parsed steps", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one
- **Pass** (100%): Step two
- **Fail** (100%): Step three
- **Pass** (100%): Step four
---
Total steps evaluated: 10
Number of passed steps: 9
Number of failed steps: 1`

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		assert.Len(t, report.Steps, 4)
		assert.Equal(t, 10, report.TotalSteps)
		rate, err := report.PassRate()
		require.NoError(t, err)
		assert.Equal(t, 0.9, rate)
		assert.Equal(t, 0.75, report.WeightedScore())
	})

	t.Run("missing summary counters leave pass rate undefined", func(t *testing.T) {
		t.Parallel()

		text := "- **Pass** (100%): Step one\n---\n"

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 1)
		_, err = report.PassRate()
		assert.ErrorIs(t, err, autoeval.ErrNoSteps)
	})

	t.Run("prose between blocks attaches to the preceding step", func(t *testing.T) {
		t.Parallel()

		text := `Some preamble the model added.

- **Pass** (100%): Step one
Pass: this line is prose, not a step
- **Fail** (70%): Step two
---
Total steps evaluated: 2`

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 2)
		assert.Equal(t, "Step one", report.Steps[0].Name)
		assert.Equal(t, "Pass: this line is prose, not a step", report.Steps[0].Reasoning)
		assert.Equal(t, "Step two", report.Steps[1].Name)
	})

	t.Run("malformed headers are not counted as steps", func(t *testing.T) {
		t.Parallel()

		text := `- **Pass** (100%): Step one
- **Skipped** (50%): Not a real status
    reasoning for the skipped block
- **Pass** (abc%): Bad confidence
- **Pass** (101%): Confidence out of range
- **Fail** (0%): Step two
    The file was not provided.
---
Total steps evaluated: 2`

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 2)
		assert.Equal(t, "Step one", report.Steps[0].Name)
		assert.Empty(t, report.Steps[0].Reasoning)
		assert.Equal(t, "Step two", report.Steps[1].Name)
		assert.Equal(t, 0, report.Steps[1].Confidence)
		assert.Equal(t, "The file was not provided.", report.Steps[1].Reasoning)
	})

	t.Run("handles CRLF line endings", func(t *testing.T) {
		t.Parallel()

		text := "- **Pass** (100%): Step one\r\n---\r\nTotal steps evaluated: 1\r\nNumber of passed steps: 1\r\n"

		report, err := markdown.NewParser().Parse(text, nil)

		require.NoError(t, err)
		require.Len(t, report.Steps, 1)
		assert.Equal(t, "Step one", report.Steps[0].Name)
		assert.Equal(t, 1, report.TotalSteps)
	})
}

func TestParseStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		block  string
		wantOK bool
		want   autoeval.EvaluationStep
	}{
		{
			name:   "header only",
			block:  "- **Pass** (100%): Test step name",
			wantOK: true,
			want: autoeval.EvaluationStep{
				Status:     autoeval.StatusPass,
				Confidence: 100,
				Name:       "Test step name",
				Weight:     1.0,
			},
		},
		{
			name: "header with reasoning",
			block: `- **Fail** (90%): Test step with reasoning

    This is the reasoning
    with multiple lines`,
			wantOK: true,
			want: autoeval.EvaluationStep{
				Status:     autoeval.StatusFail,
				Confidence: 90,
				Name:       "Test step with reasoning",
				Reasoning:  "This is the reasoning\n    with multiple lines",
				Weight:     1.0,
			},
		},
		{
			name:   "trims the step name",
			block:  "- **Pass** (5%):   padded name   ",
			wantOK: true,
			want: autoeval.EvaluationStep{
				Status:     autoeval.StatusPass,
				Confidence: 5,
				Name:       "padded name",
				Weight:     1.0,
			},
		},
		{
			name:  "plain text",
			block: "Invalid line format",
		},
		{
			name:  "lowercase status",
			block: "- **pass** (100%): Step",
		},
		{
			name:  "missing percent sign",
			block: "- **Pass** (100): Step",
		},
		{
			name:  "empty block",
			block: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			step, ok := markdown.ParseStep(tt.block)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, step)
			}
		})
	}
}
