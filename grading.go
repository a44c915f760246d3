package autoeval

// GradingResult accumulates judged criteria parsed from a JSON report.
// Only the parser that owns it should call AddEvalStep.
type GradingResult struct {
	steps []CriterionEvalStepProcessed
}

// NewGradingResult returns an empty GradingResult.
func NewGradingResult() *GradingResult {
	return &GradingResult{}
}

// AddEvalStep appends a judged criterion.
func (r *GradingResult) AddEvalStep(step CriterionEvalStepProcessed) {
	r.steps = append(r.steps, step)
}

// Steps returns a copy of the judged criteria in report order.
func (r *GradingResult) Steps() []CriterionEvalStepProcessed {
	out := make([]CriterionEvalStepProcessed, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of judged criteria.
func (r *GradingResult) Len() int {
	return len(r.steps)
}

// Score returns the weighted share of passed criteria, in [0, 1].
func (r *GradingResult) Score() float64 {
	return WeightedScore(r.steps)
}

// WeightedScore returns the sum of weights of passed steps divided by the sum
// of all weights. It is 0 for an empty sequence or a zero total weight.
func WeightedScore(steps []CriterionEvalStepProcessed) float64 {
	return weightedScore(steps, func(s CriterionEvalStepProcessed) (float64, bool) {
		return s.Weight, s.Passed
	})
}

func weightedScore[T any](steps []T, judge func(T) (weight float64, passed bool)) float64 {
	var total, passed float64
	for _, step := range steps {
		w, ok := judge(step)
		total += w
		if ok {
			passed += w
		}
	}
	if total == 0 {
		return 0
	}
	return passed / total
}
