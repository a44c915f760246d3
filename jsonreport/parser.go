// Package jsonreport parses JSON evaluation reports into grading results.
package jsonreport

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/fwojciec/autoeval"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile-time interface verification.
var _ autoeval.ReportParser = (*Parser)(nil)

// schemaURL identifies the report schema. It is absolute so that validation
// errors do not depend on the working directory.
const schemaURL = "https://github.com/fwojciec/autoeval/schemas/evaluation_report.json"

// reportSchema describes the accepted report shape. weight and passed may
// also arrive as strings; they are coerced after validation. confidence is
// not stored, so any value is accepted.
const reportSchema = `{
  "type": "object",
  "required": ["evaluation_steps"],
  "properties": {
    "evaluation_steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["criterion", "weight", "passed", "explanation"],
        "properties": {
          "criterion": { "type": "string" },
          "weight": {
            "oneOf": [
              { "type": "number", "minimum": 0 },
              { "type": "string", "minLength": 1 }
            ]
          },
          "passed": { "type": ["boolean", "string"] },
          "explanation": { "type": "string" }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, reportSchema)
	})
	return schema, schemaErr
}

// fencePattern extracts the body of a ```json fenced block.
var fencePattern = regexp.MustCompile("(?s)^```json(.*?)```")

// ExtractJSON returns the contents of a leading ```json fence, or the
// trimmed input when there is none.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```json") {
		return content
	}
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// Parser implements autoeval.ReportParser for JSON reports.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes report into a GradingResult. Parsing is all-or-nothing:
// any decode, shape or coercion problem yields a
// *autoeval.MalformedReportError and no result.
func (p *Parser) Parse(report string) (*autoeval.GradingResult, error) {
	malformed := func(reason string, err error) error {
		return &autoeval.MalformedReportError{Report: report, Reason: reason, Err: err}
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("jsonreport: compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal([]byte(ExtractJSON(report)), &doc); err != nil {
		return nil, malformed("invalid JSON", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, malformed("unexpected report shape", err)
	}

	entries := doc.(map[string]any)["evaluation_steps"].([]any)
	result := autoeval.NewGradingResult()
	for i, entry := range entries {
		step, err := decodeStep(entry.(map[string]any))
		if err != nil {
			return nil, malformed(fmt.Sprintf("evaluation_steps[%d]", i), err)
		}
		result.AddEvalStep(step)
	}
	return result, nil
}

func decodeStep(m map[string]any) (autoeval.CriterionEvalStepProcessed, error) {
	weight, err := coerceWeight(m["weight"])
	if err != nil {
		return autoeval.CriterionEvalStepProcessed{}, fmt.Errorf("weight: %w", err)
	}
	passed, err := coercePassed(m["passed"])
	if err != nil {
		return autoeval.CriterionEvalStepProcessed{}, fmt.Errorf("passed: %w", err)
	}
	return autoeval.CriterionEvalStepProcessed{
		CriterionEvalStep: autoeval.CriterionEvalStep{
			Criterion: m["criterion"].(string),
			Weight:    weight,
		},
		Passed:      passed,
		Explanation: m["explanation"].(string),
	}, nil
}

func coerceWeight(v any) (float64, error) {
	switch w := v.(type) {
	case float64:
		return w, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", w)
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a non-negative finite number", w)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func coercePassed(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("unexpected type %T", v)
	}
}
