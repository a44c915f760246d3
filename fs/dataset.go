package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Files every scenario directory must contain.
const (
	InputFile    = "input.txt"
	CriteriaFile = "meta.yaml"
	OutputFile   = "output.md"
)

// Scenario is one numbered directory of a dataset.
type Scenario struct {
	ID  int
	Dir string
}

// InputPath returns the path of the task given to the model under test.
func (s Scenario) InputPath() string { return filepath.Join(s.Dir, InputFile) }

// CriteriaPath returns the path of the criteria document.
func (s Scenario) CriteriaPath() string { return filepath.Join(s.Dir, CriteriaFile) }

// OutputPath returns the path of the answer being evaluated.
func (s Scenario) OutputPath() string { return filepath.Join(s.Dir, OutputFile) }

// ReportPath returns where the evaluation report for metric is stored.
func (s Scenario) ReportPath(metric string) string {
	return filepath.Join(s.Dir, metric+".md")
}

// Dataset is a directory of scenario directories named by their numeric id.
type Dataset struct {
	dir    string
	logger zerolog.Logger
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithLogger sets the logger used to report skipped scenario directories.
func WithLogger(logger zerolog.Logger) DatasetOption {
	return func(d *Dataset) {
		d.logger = logger
	}
}

// NewDataset creates a Dataset rooted at dir.
func NewDataset(dir string, opts ...DatasetOption) *Dataset {
	d := &Dataset{dir: dir, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir returns the dataset root.
func (d *Dataset) Dir() string {
	return d.dir
}

// Scenarios returns the requested scenarios that exist and carry all
// required files, ordered by id, together with the requested ids that
// were not found.
func (d *Dataset) Scenarios(ids []int) ([]Scenario, []int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset: %w", err)
	}

	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var found []Scenario
	for _, entry := range entries {
		if !entry.IsDir() || !isDigits(entry.Name()) {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil || !wanted[id] {
			continue
		}
		s := Scenario{ID: id, Dir: filepath.Join(d.dir, entry.Name())}
		if missing := missingFile(s.Dir); missing != "" {
			d.logger.Warn().Int("scenario", id).Str("file", missing).Msg("scenario is missing required file")
			continue
		}
		found = append(found, s)
		delete(wanted, id)
	}
	slices.SortFunc(found, func(a, b Scenario) int { return a.ID - b.ID })

	var missed []int
	for id := range wanted {
		missed = append(missed, id)
	}
	slices.Sort(missed)

	return found, missed, nil
}

func missingFile(dir string) string {
	for _, name := range []string{InputFile, CriteriaFile, OutputFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			return name
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateDataDir expands and absolutizes path and checks that it is an
// existing directory.
func ValidateDataDir(path string) (string, error) {
	abs, err := absPath(path, "data directory")
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("data directory does not exist: %s", abs)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("data directory is not a directory: %s", abs)
	}
	return abs, nil
}

// ValidateReportPath expands and absolutizes path and checks that it names
// a new .csv file in an existing directory.
func ValidateReportPath(path string) (string, error) {
	abs, err := absPath(path, "report path")
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err == nil {
		return "", fmt.Errorf("grading report already exists: %s", abs)
	}
	parent := filepath.Dir(abs)
	if _, err := os.Stat(parent); err != nil {
		return "", fmt.Errorf("parent directory for grading report does not exist: %s", parent)
	}
	if !strings.HasSuffix(abs, ".csv") {
		return "", fmt.Errorf("report must be in CSV format: %s", abs)
	}
	return abs, nil
}

func absPath(path, what string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s cannot be empty", what)
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", what, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
