// Package jsonl keeps the results log: an append-only file of graded
// scenarios, one JSON object per line. Every run appends to the same log,
// so a scenario graded twice appears twice.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var _ autoeval.ResultLoader = (*Loader)(nil)

// maxLineSize bounds a single log line (4MB). Results embed per-step
// explanations, which can be long.
const maxLineSize = 4 * 1024 * 1024

// Loader reads graded scenarios back from a results log.
type Loader struct {
	latestOnly bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLatestOnly keeps only the last logged result of each scenario, so a
// log holding several runs reads as the most recent grading.
func WithLatestOnly() LoaderOption {
	return func(l *Loader) {
		l.latestOnly = true
	}
}

// NewLoader creates a new Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the results logged at path in log order. With
// WithLatestOnly, each scenario keeps the position of its first entry and
// the content of its last.
func (l *Loader) Load(path string) ([]autoeval.ScenarioResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsonl: %w", err)
	}
	defer f.Close()

	var results []autoeval.ScenarioResult
	index := map[int]int{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r autoeval.ScenarioResult
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("jsonl: %s line %d: %w", path, lineNum, err)
		}
		if i, seen := index[r.ScenarioID]; seen && l.latestOnly {
			results[i] = r
			continue
		}
		index[r.ScenarioID] = len(results)
		results = append(results, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonl: %s: %w", path, err)
	}
	return results, nil
}
