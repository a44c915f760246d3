package mock

import (
	"context"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var (
	_ autoeval.Executor     = (*Executor)(nil)
	_ autoeval.Grader       = (*Grader)(nil)
	_ autoeval.ReportParser = (*ReportParser)(nil)
)

// Executor is a mock implementation of autoeval.Executor.
type Executor struct {
	ExecuteFn func(ctx context.Context, prompt string) (string, error)
}

func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	return e.ExecuteFn(ctx, prompt)
}

// Grader is a mock implementation of autoeval.Grader.
type Grader struct {
	GradeFn func(ctx context.Context, report string) (*autoeval.Distribution, error)
}

func (g *Grader) Grade(ctx context.Context, report string) (*autoeval.Distribution, error) {
	return g.GradeFn(ctx, report)
}

// ReportParser is a mock implementation of autoeval.ReportParser.
type ReportParser struct {
	ParseFn func(report string) (*autoeval.GradingResult, error)
}

func (p *ReportParser) Parse(report string) (*autoeval.GradingResult, error) {
	return p.ParseFn(report)
}
