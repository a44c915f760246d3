package autoeval

import (
	"errors"
	"fmt"
)

// ErrEmptyCriteria is returned when a prompt would be built against zero criteria.
var ErrEmptyCriteria = errors.New("evaluation steps cannot be empty")

// ErrNoSteps is returned when a pass rate is requested for a report whose
// summary reports zero evaluated steps.
var ErrNoSteps = errors.New("report has no evaluated steps")

// ValidationError describes a malformed or incomplete criteria document.
type ValidationError struct {
	Field   string // Dotted path, e.g. "evaluation_steps.accuracy[0].weight"; empty for document-level problems
	Message string
	Err     error // Underlying decode error, if any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field == "" {
		return "invalid criteria: " + msg
	}
	return fmt.Sprintf("invalid criteria: %s: %s", e.Field, msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MalformedReportError is returned when an evaluation report does not match
// the expected grammar. Report holds the offending text for diagnostics.
type MalformedReportError struct {
	Report string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *MalformedReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed report: %s: %v", e.Reason, e.Err)
	}
	return "malformed report: " + e.Reason
}

func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

// ErrRunNotFound is returned when a RunStore has no run with the requested id.
var ErrRunNotFound = errors.New("run not found")

// ErrNoMarkdownParser is returned when a markdown report is graded by an
// Evaluator that has no MarkdownParser.
var ErrNoMarkdownParser = errors.New("no markdown report parser configured")
