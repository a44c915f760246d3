package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var _ autoeval.ResultSaver = (*Saver)(nil)

// Saver appends graded scenarios to a results log.
type Saver struct{}

// NewSaver creates a new Saver.
func NewSaver() *Saver {
	return &Saver{}
}

// Save appends result to the log at path as a single line, creating the log
// and its parent directories if needed. The line is encoded before the log
// is opened, so an unencodable result leaves the log untouched.
func (s *Saver) Save(path string, result autoeval.ScenarioResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("jsonl: encode scenario %d: %w", result.ScenarioID, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("jsonl: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("jsonl: append to %s: %w", path, err)
	}
	return f.Close()
}
