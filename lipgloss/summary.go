package lipgloss

import (
	"fmt"
	"strconv"
	"strings"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/autoeval"
)

// DefaultPassThreshold is the score at or above which a metric is shown as passing.
const DefaultPassThreshold = 0.8

var headers = []string{"Scenario", "Category", "Metric", "Score", "Pass rate", "Grade"}

// Summary renders scenario results as a table followed by per-metric averages.
type Summary struct {
	renderer  *lg.Renderer
	theme     *Theme
	threshold float64
}

// SummaryOption configures a Summary.
type SummaryOption func(*Summary)

// WithRenderer sets the Lipgloss renderer. Tests pass one with an ASCII profile.
func WithRenderer(r *lg.Renderer) SummaryOption {
	return func(s *Summary) {
		s.renderer = r
	}
}

// WithTheme sets the color theme.
func WithTheme(t *Theme) SummaryOption {
	return func(s *Summary) {
		s.theme = t
	}
}

// WithPassThreshold sets the score at or above which a metric counts as passing.
func WithPassThreshold(v float64) SummaryOption {
	return func(s *Summary) {
		s.threshold = v
	}
}

// NewSummary creates a Summary.
func NewSummary(opts ...SummaryOption) *Summary {
	s := &Summary{
		renderer:  lg.DefaultRenderer(),
		theme:     DefaultTheme(),
		threshold: DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render returns the summary of results. An empty slice renders a short notice.
func (s *Summary) Render(results []autoeval.ScenarioResult) string {
	muted := s.renderer.NewStyle().Foreground(s.theme.Muted)
	if len(results) == 0 {
		return muted.Render("no results")
	}

	var rows [][]string
	var scores []float64 // parallel to rows
	for _, r := range results {
		for _, m := range r.Metrics {
			rows = append(rows, []string{
				strconv.Itoa(r.ScenarioID),
				r.Metadata.Category,
				m.Metric,
				formatFloat(m.Score),
				formatOptional(m.PassRate),
				formatGrade(m.Grade),
			})
			scores = append(scores, m.Score)
		}
	}

	cell := s.renderer.NewStyle().Padding(0, 1)
	header := cell.Bold(true).Foreground(s.theme.Header)
	t := table.New().
		Border(lg.RoundedBorder()).
		BorderStyle(s.renderer.NewStyle().Foreground(s.theme.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lg.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 3 && row >= 0 && row < len(scores) {
				return cell.Foreground(s.scoreColor(scores[row]))
			}
			return cell
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	for _, avg := range averages(results) {
		line := fmt.Sprintf("%s: mean score %s over %d scenarios", avg.metric, formatFloat(avg.score), avg.count)
		if avg.passRates > 0 {
			line += fmt.Sprintf(", mean pass rate %s", formatFloat(avg.passRate))
		}
		if avg.grades > 0 {
			line += fmt.Sprintf(", mean grade %s", formatFloat(avg.grade))
		}
		b.WriteString(muted.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Summary) scoreColor(score float64) lg.Color {
	switch {
	case score >= s.threshold:
		return s.theme.Pass
	case score < 0.5:
		return s.theme.Fail
	default:
		return s.theme.Warn
	}
}

type metricAverage struct {
	metric    string
	count     int
	score     float64
	passRates int
	passRate  float64
	grades    int
	grade     float64
}

// averages returns per-metric means in first-seen metric order.
func averages(results []autoeval.ScenarioResult) []metricAverage {
	var out []metricAverage
	index := map[string]int{}
	for _, r := range results {
		for _, m := range r.Metrics {
			i, ok := index[m.Metric]
			if !ok {
				i = len(out)
				index[m.Metric] = i
				out = append(out, metricAverage{metric: m.Metric})
			}
			a := &out[i]
			a.count++
			a.score += m.Score
			if m.PassRate != nil {
				a.passRates++
				a.passRate += *m.PassRate
			}
			if m.Grade != nil {
				a.grades++
				a.grade += m.Grade.WeightedScore()
			}
		}
	}
	for i := range out {
		a := &out[i]
		a.score /= float64(a.count)
		if a.passRates > 0 {
			a.passRate /= float64(a.passRates)
		}
		if a.grades > 0 {
			a.grade /= float64(a.grades)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatGrade(d *autoeval.Distribution) string {
	if d == nil || d.Score() == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%s)", d.Score(), formatFloat(d.WeightedScore()))
}
