package autoeval

import "strings"

// DefaultStepWeight is the weight of a markdown step with no matching override.
const DefaultStepWeight = 1.0

// Status is the verdict of a markdown evaluation step.
type Status string

// Step statuses.
const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// Passed reports whether s is a passing status.
func (s Status) Passed() bool {
	return strings.EqualFold(string(s), string(StatusPass))
}

// EvaluationStep is one bullet block of a markdown evaluation report.
type EvaluationStep struct {
	Status     Status  `json:"status"`
	Confidence int     `json:"confidence"` // 0-100
	Name       string  `json:"name"`
	Reasoning  string  `json:"reasoning,omitempty"` // Empty when the model gave none
	Weight     float64 `json:"weight"`
}

// EvaluationReport is a parsed markdown evaluation report.
//
// The summary counters come from the report's trailing summary block and are
// never reconciled with Steps: a report may claim more steps than it contains.
type EvaluationReport struct {
	Text        string
	Steps       []EvaluationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
}

// PassRate returns PassedSteps / TotalSteps from the summary counters.
// It returns ErrNoSteps when the summary reports zero total steps.
func (r *EvaluationReport) PassRate() (float64, error) {
	if r.TotalSteps == 0 {
		return 0, ErrNoSteps
	}
	return float64(r.PassedSteps) / float64(r.TotalSteps), nil
}

// WeightedScore returns the weighted share of passed steps, in [0, 1].
func (r *EvaluationReport) WeightedScore() float64 {
	return weightedScore(r.Steps, func(s EvaluationStep) (float64, bool) {
		return s.Weight, s.Status.Passed()
	})
}

// GradingResult returns the parsed steps as judged criteria, keeping their
// weights. Its Score equals WeightedScore.
func (r *EvaluationReport) GradingResult() *GradingResult {
	result := NewGradingResult()
	for _, step := range r.Steps {
		result.AddEvalStep(CriterionEvalStepProcessed{
			CriterionEvalStep: CriterionEvalStep{Criterion: step.Name, Weight: step.Weight},
			Passed:            step.Status.Passed(),
			Explanation:       step.Reasoning,
		})
	}
	return result
}

// ApplyWeights replaces each step's weight with the weight of the override
// whose name matches (case-insensitive, surrounding space ignored). Steps
// without a match get DefaultStepWeight.
func (r *EvaluationReport) ApplyWeights(overrides []EvaluationStep) {
	for i := range r.Steps {
		r.Steps[i].Weight = DefaultStepWeight
		if match, ok := findStep(r.Steps[i].Name, overrides); ok {
			r.Steps[i].Weight = match.Weight
		}
	}
}

func findStep(name string, steps []EvaluationStep) (EvaluationStep, bool) {
	key := normalizeName(name)
	for _, step := range steps {
		if normalizeName(step.Name) == key {
			return step, true
		}
	}
	return EvaluationStep{}, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
