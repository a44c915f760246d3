package autoeval

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultConfidenceThreshold is the probability a grade must exceed to be
// considered confident.
const DefaultConfidenceThreshold = 0.9

// minGradeProbability is the cutoff below which candidate tokens are ignored.
const minGradeProbability = 0.01

// TokenLogprob is one top candidate token reported by a model, with its log-probability.
type TokenLogprob struct {
	Token   string
	Logprob float64
}

// ScoreProbability pairs a 1-5 grade with its probability.
type ScoreProbability struct {
	Score       int     `json:"score"`
	Probability float64 `json:"probability"`
}

// Distribution is a discrete distribution over 1-5 grades, built from the
// top candidate tokens of a single-token grading response.
type Distribution struct {
	probabilities []ScoreProbability
}

// NewDistribution builds a Distribution from candidates in the order the
// model ranked them. It stops at the first token that is not a grade 1-5 or
// whose probability rounds below 0.01.
func NewDistribution(candidates []TokenLogprob) *Distribution {
	d := &Distribution{}
	for _, c := range candidates {
		grade, err := strconv.Atoi(strings.TrimSpace(c.Token))
		if err != nil || grade < 1 || grade > 5 {
			break
		}
		p := round2(math.Exp(c.Logprob))
		if p < minGradeProbability {
			break
		}
		d.probabilities = append(d.probabilities, ScoreProbability{Score: grade, Probability: p})
	}
	return d
}

// Probabilities returns a copy of the grade probabilities in model order.
func (d *Distribution) Probabilities() []ScoreProbability {
	out := make([]ScoreProbability, len(d.probabilities))
	copy(out, d.probabilities)
	return out
}

// Score returns the most probable grade, or 0 when the distribution is empty.
func (d *Distribution) Score() int {
	best, ok := d.best()
	if !ok {
		return 0
	}
	return best.Score
}

// WeightedScore returns the probability-weighted grade, rounded to two places.
func (d *Distribution) WeightedScore() float64 {
	var sum float64
	for _, p := range d.probabilities {
		sum += float64(p.Score) * p.Probability
	}
	return round2(sum)
}

// IsConfident reports whether the most probable grade exceeds threshold.
func (d *Distribution) IsConfident(threshold float64) bool {
	best, ok := d.best()
	return ok && best.Probability > threshold
}

func (d *Distribution) best() (ScoreProbability, bool) {
	if len(d.probabilities) == 0 {
		return ScoreProbability{}, false
	}
	best := d.probabilities[0]
	for _, p := range d.probabilities[1:] {
		if p.Probability > best.Probability {
			best = p
		}
	}
	return best, true
}

// MarshalJSON encodes the distribution as its list of grade probabilities.
func (d *Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.probabilities)
}

// UnmarshalJSON decodes a list of grade probabilities.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.probabilities)
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
