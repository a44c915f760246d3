// Package markdown parses free-text evaluation reports made of bullet step
// blocks, a "---" separator and a summary block.
package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/autoeval"
)

const (
	separator  = "---"
	stepMarker = "- **"

	labelTotal  = "Total steps evaluated:"
	labelPassed = "Number of passed steps:"
	labelFailed = "Number of failed steps:"
)

// headerPattern matches "- **Pass** (90%): Step name".
var headerPattern = regexp.MustCompile(`^- \*\*(Pass|Fail)\*\* \((\d+)%\): (.+)$`)

// Parser parses markdown evaluation reports.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses text into an EvaluationReport. When overrides is non-empty,
// step weights are taken from it after parsing completes (see
// autoeval.EvaluationReport.ApplyWeights).
func (p *Parser) Parse(text string, overrides []autoeval.EvaluationStep) (*autoeval.EvaluationReport, error) {
	lines := splitLines(text)

	sep := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != separator {
			continue
		}
		if sep >= 0 {
			return nil, &autoeval.MalformedReportError{
				Report: text,
				Reason: fmt.Sprintf("separator %q appears more than once (lines %d and %d)", separator, sep+1, i+1),
			}
		}
		sep = i
	}
	if sep < 0 {
		return nil, &autoeval.MalformedReportError{
			Report: text,
			Reason: fmt.Sprintf("missing %q separator between steps and summary", separator),
		}
	}

	report := &autoeval.EvaluationReport{
		Text:  text,
		Steps: parseSteps(lines[:sep]),
	}
	if err := parseSummary(report, lines[sep+1:]); err != nil {
		return nil, &autoeval.MalformedReportError{Report: text, Reason: "invalid summary", Err: err}
	}

	if len(overrides) > 0 {
		report.ApplyWeights(overrides)
	}
	return report, nil
}

// parseSteps groups lines into blocks. A line starting with the step marker
// always closes the current block; blocks whose header doesn't parse are
// dropped together with their continuation lines. Lines before the first
// block are ignored.
func parseSteps(lines []string) []autoeval.EvaluationStep {
	var steps []autoeval.EvaluationStep
	var block []string

	flush := func() {
		if len(block) == 0 {
			return
		}
		if step, ok := ParseStep(strings.Join(block, "\n")); ok {
			steps = append(steps, step)
		}
		block = nil
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, stepMarker):
			flush()
			block = []string{line}
		case strings.TrimSpace(line) == "":
			// Blank lines never contribute to reasoning.
		case len(block) > 0:
			block = append(block, line)
		}
	}
	flush()

	return steps
}

// ParseStep parses a single step block: a header line followed by optional
// reasoning lines. It reports false if the header is not a valid step.
func ParseStep(block string) (autoeval.EvaluationStep, bool) {
	lines := splitLines(strings.TrimSpace(block))
	if len(lines) == 0 {
		return autoeval.EvaluationStep{}, false
	}

	m := headerPattern.FindStringSubmatch(strings.TrimRight(lines[0], " \t"))
	if m == nil {
		return autoeval.EvaluationStep{}, false
	}
	confidence, err := strconv.Atoi(m[2])
	if err != nil || confidence > 100 {
		return autoeval.EvaluationStep{}, false
	}
	name := strings.TrimSpace(m[3])
	if name == "" {
		return autoeval.EvaluationStep{}, false
	}

	var reasoning []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			reasoning = append(reasoning, line)
		}
	}

	return autoeval.EvaluationStep{
		Status:     autoeval.Status(m[1]),
		Confidence: confidence,
		Name:       name,
		Reasoning:  strings.TrimSpace(strings.Join(reasoning, "\n")),
		Weight:     autoeval.DefaultStepWeight,
	}, true
}

// parseSummary reads the labelled counters. Labels may appear in any order;
// a repeated label overwrites the earlier value.
func parseSummary(report *autoeval.EvaluationReport, lines []string) error {
	counters := []struct {
		label string
		dst   *int
	}{
		{labelTotal, &report.TotalSteps},
		{labelPassed, &report.PassedSteps},
		{labelFailed, &report.FailedSteps},
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, c := range counters {
			rest, ok := strings.CutPrefix(line, c.label)
			if !ok {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return fmt.Errorf("%s %w", c.label, err)
			}
			*c.dst = n
		}
	}
	return nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
