package autoeval

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultScenarioID is used when a criteria document carries no scenario_id.
const DefaultScenarioID = -1

// CriterionEvalStep is a single weighted rubric line item.
type CriterionEvalStep struct {
	Criterion string  `json:"criterion"`
	Weight    float64 `json:"weight"`
}

// CriterionEvalStepProcessed is a criterion after the model has judged it.
type CriterionEvalStepProcessed struct {
	CriterionEvalStep
	Passed      bool   `json:"passed"`
	Explanation string `json:"explanation"`
}

// CriteriaEvalSteps holds the two ordered criteria lists of a scenario.
type CriteriaEvalSteps struct {
	Accuracy     []CriterionEvalStep `json:"accuracy"`
	Completeness []CriterionEvalStep `json:"completeness"`
}

// CriteriaMeta describes the scenario a set of criteria belongs to.
type CriteriaMeta struct {
	Category   string `json:"category"`
	Experiment string `json:"experiment"`
	Repository string `json:"repository"`
	ScenarioID int    `json:"scenario_id"`
}

// Criteria is the weighted rubric of one scenario. Read-only once built.
type Criteria struct {
	EvaluationSteps CriteriaEvalSteps `json:"evaluation_steps"`
	Metadata        CriteriaMeta      `json:"metadata"`
}

// Steps returns the criteria list for the named metric.
func (c *Criteria) Steps(metric string) []CriterionEvalStep {
	switch metric {
	case MetricAccuracy:
		return c.EvaluationSteps.Accuracy
	case MetricCompleteness:
		return c.EvaluationSteps.Completeness
	default:
		return nil
	}
}

// NewCriteria validates steps and meta and returns the resulting Criteria.
// Every problem is reported as a *ValidationError; multiple problems are
// joined so callers see all of them at once.
func NewCriteria(steps CriteriaEvalSteps, meta CriteriaMeta) (*Criteria, error) {
	var errs []error
	errs = append(errs, validateSteps("evaluation_steps.accuracy", steps.Accuracy)...)
	errs = append(errs, validateSteps("evaluation_steps.completeness", steps.Completeness)...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Copy so later mutation of the caller's slices can't reach the rubric.
	return &Criteria{
		EvaluationSteps: CriteriaEvalSteps{
			Accuracy:     cloneSteps(steps.Accuracy),
			Completeness: cloneSteps(steps.Completeness),
		},
		Metadata: meta,
	}, nil
}

func validateSteps(path string, steps []CriterionEvalStep) []error {
	var errs []error
	for i, step := range steps {
		field := fmt.Sprintf("%s[%d]", path, i)
		if strings.TrimSpace(step.Criterion) == "" {
			errs = append(errs, &ValidationError{Field: field + ".criterion", Message: "must not be empty"})
		}
		switch {
		case math.IsNaN(step.Weight) || math.IsInf(step.Weight, 0):
			errs = append(errs, &ValidationError{Field: field + ".weight", Message: "must be a finite number"})
		case step.Weight < 0:
			errs = append(errs, &ValidationError{Field: field + ".weight", Message: "must not be negative"})
		}
	}
	return errs
}

func cloneSteps(steps []CriterionEvalStep) []CriterionEvalStep {
	out := make([]CriterionEvalStep, len(steps))
	copy(out, steps)
	return out
}

// StepWeights converts criteria into weight overrides for markdown reports.
func StepWeights(steps []CriterionEvalStep) []EvaluationStep {
	overrides := make([]EvaluationStep, len(steps))
	for i, step := range steps {
		overrides[i] = EvaluationStep{Name: step.Criterion, Weight: step.Weight}
	}
	return overrides
}
