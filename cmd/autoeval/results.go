package main

import (
	"context"

	"github.com/fwojciec/autoeval"
	"github.com/rs/zerolog"
)

// Recorder persists a finished run.
type Recorder struct {
	Saver  autoeval.ResultSaver  // Appends each result to the results log
	Store  autoeval.RunStore     // Optional run database; nil skips it
	Writer autoeval.ReportWriter // Writes the CSV grading report
	Logger zerolog.Logger
}

// Record appends run's results to resultsPath, saves the run to the store
// when one is set, and writes the grading report to reportPath.
func (r *Recorder) Record(ctx context.Context, run *autoeval.Run, resultsPath, reportPath string) error {
	for _, result := range run.Results {
		if err := r.Saver.Save(resultsPath, result); err != nil {
			return err
		}
	}

	if r.Store != nil {
		if err := r.Store.SaveRun(ctx, run); err != nil {
			return err
		}
		r.Logger.Info().Str("run", run.ID).Msg("saved run")
	}

	if err := r.Writer.Write(reportPath, run.Results); err != nil {
		return err
	}
	r.Logger.Info().Str("report", reportPath).Int("results", len(run.Results)).Msg("wrote grading report")
	return nil
}

// ResultSource reads graded results back for the summary and review commands.
type ResultSource struct {
	Loader autoeval.ResultLoader
	Store  autoeval.RunStore // When set, results come from a stored run
}

// Results returns the results of run runID from the store, or of the latest
// run when runID is empty. Without a store they are read from resultsPath.
func (s *ResultSource) Results(ctx context.Context, resultsPath, runID string) ([]autoeval.ScenarioResult, error) {
	if s.Store == nil {
		return s.Loader.Load(resultsPath)
	}

	if runID == "" {
		var err error
		if runID, err = s.Store.LatestRunID(ctx); err != nil {
			return nil, err
		}
	}
	run, err := s.Store.FindRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return run.Results, nil
}

// DatasetRevision returns the revision of dataDir, or "" when it is not
// under version control.
func DatasetRevision(ctx context.Context, r autoeval.RevisionReader, dataDir string, logger zerolog.Logger) string {
	rev, err := r.Revision(ctx, dataDir)
	if err != nil {
		logger.Debug().Err(err).Str("data_dir", dataDir).Msg("dataset revision unavailable")
		return ""
	}
	return rev
}
