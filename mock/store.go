package mock

import (
	"context"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var (
	_ autoeval.CriteriaLoader = (*CriteriaLoader)(nil)
	_ autoeval.ResultSaver    = (*ResultSaver)(nil)
	_ autoeval.ResultLoader   = (*ResultLoader)(nil)
	_ autoeval.ReportWriter   = (*ReportWriter)(nil)
	_ autoeval.RunStore       = (*RunStore)(nil)
	_ autoeval.RevisionReader = (*RevisionReader)(nil)
	_ autoeval.Clipboard      = (*Clipboard)(nil)
)

// CriteriaLoader is a mock implementation of autoeval.CriteriaLoader.
type CriteriaLoader struct {
	LoadFn func(document string) (*autoeval.Criteria, error)
}

func (l *CriteriaLoader) Load(document string) (*autoeval.Criteria, error) {
	return l.LoadFn(document)
}

// ResultSaver is a mock implementation of autoeval.ResultSaver.
type ResultSaver struct {
	SaveFn func(path string, result autoeval.ScenarioResult) error
}

func (s *ResultSaver) Save(path string, result autoeval.ScenarioResult) error {
	return s.SaveFn(path, result)
}

// ResultLoader is a mock implementation of autoeval.ResultLoader.
type ResultLoader struct {
	LoadFn func(path string) ([]autoeval.ScenarioResult, error)
}

func (l *ResultLoader) Load(path string) ([]autoeval.ScenarioResult, error) {
	return l.LoadFn(path)
}

// ReportWriter is a mock implementation of autoeval.ReportWriter.
type ReportWriter struct {
	WriteFn func(path string, results []autoeval.ScenarioResult) error
}

func (w *ReportWriter) Write(path string, results []autoeval.ScenarioResult) error {
	return w.WriteFn(path, results)
}

// RunStore is a mock implementation of autoeval.RunStore.
type RunStore struct {
	SaveRunFn     func(ctx context.Context, run *autoeval.Run) error
	FindRunFn     func(ctx context.Context, id string) (*autoeval.Run, error)
	LatestRunIDFn func(ctx context.Context) (string, error)
}

func (s *RunStore) SaveRun(ctx context.Context, run *autoeval.Run) error {
	return s.SaveRunFn(ctx, run)
}

func (s *RunStore) FindRun(ctx context.Context, id string) (*autoeval.Run, error) {
	return s.FindRunFn(ctx, id)
}

func (s *RunStore) LatestRunID(ctx context.Context) (string, error) {
	return s.LatestRunIDFn(ctx)
}

// RevisionReader is a mock implementation of autoeval.RevisionReader.
type RevisionReader struct {
	RevisionFn func(ctx context.Context, dir string) (string, error)
}

func (r *RevisionReader) Revision(ctx context.Context, dir string) (string, error) {
	return r.RevisionFn(ctx, dir)
}

// Clipboard is a mock implementation of autoeval.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}
