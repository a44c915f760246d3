package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/autoeval"
	"github.com/fwojciec/autoeval/fs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// metrics lists the metrics of a scenario in the order they are evaluated.
var metrics = []string{autoeval.MetricCompleteness, autoeval.MetricAccuracy}

// Runner evaluates and grades scenarios of a dataset.
type Runner struct {
	Evaluator *autoeval.Evaluator
	Criteria  autoeval.CriteriaLoader
	Grader    autoeval.Grader // Optional probability grading; nil disables it
	Reuse     bool            // Grade existing reports instead of calling the executor
	Workers   int
	Logger    zerolog.Logger
}

// scenarioResult holds the outcome of a single scenario.
type scenarioResult struct {
	result *autoeval.ScenarioResult
	err    error
}

// Run grades scenarios and returns their results in input order. A scenario
// that fails is logged and left out. Only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, scenarios []fs.Scenario) ([]autoeval.ScenarioResult, error) {
	results := make([]scenarioResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))

	for i, s := range scenarios {
		g.Go(func() error {
			result, err := r.runScenario(ctx, s)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			results[i] = scenarioResult{result: result, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]autoeval.ScenarioResult, 0, len(results))
	for i, res := range results {
		if res.err != nil {
			r.Logger.Error().Err(res.err).Int("scenario", scenarios[i].ID).Msg("skipping scenario")
			continue
		}
		out = append(out, *res.result)
	}
	return out, nil
}

func (r *Runner) runScenario(ctx context.Context, s fs.Scenario) (*autoeval.ScenarioResult, error) {
	doc, err := fs.ReadFile(s.CriteriaPath())
	if err != nil {
		return nil, err
	}
	criteria, err := r.Criteria.Load(doc)
	if err != nil {
		return nil, err
	}

	reports, err := r.reports(ctx, s, criteria)
	if err != nil {
		return nil, err
	}

	result := &autoeval.ScenarioResult{ScenarioID: s.ID, Metadata: criteria.Metadata}
	for _, metric := range metrics {
		m, err := r.gradeMetric(ctx, metric, reports[metric], criteria.Steps(metric))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", metric, err)
		}
		result.Metrics = append(result.Metrics, m)
	}

	r.Logger.Info().
		Int("scenario", s.ID).
		Float64("completeness", result.Metric(autoeval.MetricCompleteness).Score).
		Float64("accuracy", result.Metric(autoeval.MetricAccuracy).Score).
		Msg("graded scenario")
	return result, nil
}

// reports returns the evaluation report of every metric, keyed by metric.
func (r *Runner) reports(ctx context.Context, s fs.Scenario, criteria *autoeval.Criteria) (map[string]string, error) {
	reports := make(map[string]string, len(metrics))
	if r.Reuse {
		for _, metric := range metrics {
			text, err := fs.ReadFile(s.ReportPath(metric))
			if err != nil {
				return nil, err
			}
			reports[metric] = text
		}
		return reports, nil
	}

	answer, err := fs.ReadFile(s.OutputPath())
	if err != nil {
		return nil, err
	}
	evaluated, err := r.Evaluator.EvaluateScenario(ctx, criteria, answer)
	if err != nil {
		return nil, err
	}
	reports[autoeval.MetricAccuracy] = evaluated.Accuracy
	reports[autoeval.MetricCompleteness] = evaluated.Completeness

	for _, metric := range metrics {
		if err := fs.WriteFile(s.ReportPath(metric), reports[metric]); err != nil {
			r.Logger.Warn().Err(err).Int("scenario", s.ID).Str("metric", metric).Msg("cannot write report")
		}
	}
	return reports, nil
}

func (r *Runner) gradeMetric(ctx context.Context, metric, report string, steps []autoeval.CriterionEvalStep) (autoeval.MetricResult, error) {
	result, err := r.Evaluator.Grade(metric, report, steps)
	if err != nil {
		return result, err
	}

	if r.Grader != nil {
		grade, err := r.Grader.Grade(ctx, report)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			r.Logger.Warn().Err(err).Str("metric", metric).Msg("probability grading failed")
		} else {
			result.Grade = grade
		}
	}
	return result, nil
}

// ParseScenarioRanges parses a comma-separated list of scenario ids and
// inclusive ranges, such as "1,3,5-10", into sorted unique ids.
func ParseScenarioRanges(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("scenario ranges cannot be empty")
	}
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(strings.TrimSpace(part), "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid scenario range %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid scenario range %q", part)
			}
		}
		if last < first {
			return nil, fmt.Errorf("invalid scenario range %q: end before start", part)
		}
		for id := first; id <= last; id++ {
			seen[id] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ScenarioCount returns the ids 1..n.
func ScenarioCount(n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("scenario count must be positive, got %d", n)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids, nil
}
