// Package csv writes flattened grading reports as CSV.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var _ autoeval.ReportWriter = (*Writer)(nil)

// Header lists the report columns, one row per scenario and metric.
var Header = []string{
	"scenario_id",
	"category",
	"experiment",
	"repository",
	"metric",
	"score",
	"pass_rate",
	"grade",
	"grade_weighted",
	"grade_confident",
}

// Writer implements autoeval.ReportWriter.
type Writer struct {
	threshold float64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithConfidenceThreshold sets the probability above which a grade is
// reported as confident.
func WithConfidenceThreshold(threshold float64) WriterOption {
	return func(w *Writer) {
		w.threshold = threshold
	}
}

// NewWriter creates a new Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{threshold: autoeval.DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write creates path and writes one row per scenario metric. It refuses to
// overwrite an existing file.
func (w *Writer) Write(path string, results []autoeval.ScenarioResult) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("csv: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	for _, r := range results {
		for _, m := range r.Metrics {
			if err := cw.Write(w.row(r, m)); err != nil {
				return fmt.Errorf("csv: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

func (w *Writer) row(r autoeval.ScenarioResult, m autoeval.MetricResult) []string {
	row := []string{
		strconv.Itoa(r.ScenarioID),
		r.Metadata.Category,
		r.Metadata.Experiment,
		r.Metadata.Repository,
		m.Metric,
		formatFloat(m.Score),
		"",
		"",
		"",
		"",
	}
	if m.PassRate != nil {
		row[6] = formatFloat(*m.PassRate)
	}
	if m.Grade != nil {
		row[7] = strconv.Itoa(m.Grade.Score())
		row[8] = formatFloat(m.Grade.WeightedScore())
		row[9] = strconv.FormatBool(m.Grade.IsConfident(w.threshold))
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
