package lipgloss_test

import (
	"testing"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func asciiSummary() *lipgloss.Summary {
	renderer := lg.NewRenderer(nil, termenv.WithProfile(termenv.Ascii))
	return lipgloss.NewSummary(lipgloss.WithRenderer(renderer))
}

func ptr(v float64) *float64 { return &v }

func TestSummary_Render(t *testing.T) {
	t.Parallel()

	grade := autoeval.NewDistribution([]autoeval.TokenLogprob{{Token: "4", Logprob: 0}})
	results := []autoeval.ScenarioResult{
		{
			ScenarioID: 1,
			Metadata:   autoeval.CriteriaMeta{Category: "refactoring"},
			Metrics: []autoeval.MetricResult{
				{Metric: autoeval.MetricCompleteness, Score: 1},
				{Metric: autoeval.MetricAccuracy, Score: 0.5, Grade: grade},
			},
		},
		{
			ScenarioID: 2,
			Metadata:   autoeval.CriteriaMeta{Category: "bugfix"},
			Metrics: []autoeval.MetricResult{
				{Metric: autoeval.MetricCompleteness, Score: 0.5, PassRate: ptr(0.75)},
				{Metric: autoeval.MetricAccuracy, Score: 0.25},
			},
		},
	}

	out := asciiSummary().Render(results)

	assert.Contains(t, out, "Scenario")
	assert.Contains(t, out, "refactoring")
	assert.Contains(t, out, "bugfix")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "4 (4.00)")
	assert.Contains(t, out, "completeness: mean score 0.75 over 2 scenarios, mean pass rate 0.75")
	assert.Contains(t, out, "accuracy: mean score 0.38 over 2 scenarios, mean grade 4.00")
	assert.NotContains(t, out, "\x1b[", "ascii profile must not emit escape codes")
}

func TestSummary_Render_Empty(t *testing.T) {
	t.Parallel()

	out := asciiSummary().Render(nil)

	assert.Equal(t, "no results", out)
}

func TestThemes(t *testing.T) {
	t.Parallel()

	for name, theme := range map[string]*lipgloss.Theme{
		"default": lipgloss.DefaultTheme(),
		"dark":    lipgloss.DarkTheme(),
		"light":   lipgloss.LightTheme(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.NotEmpty(t, theme.Pass)
			assert.NotEmpty(t, theme.Fail)
			assert.NotEqual(t, theme.Pass, theme.Fail)
		})
	}
}
