// Package yaml loads criteria documents written in YAML.
package yaml

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/fwojciec/autoeval"
	"github.com/go-playground/validator/v10"
	goyaml "gopkg.in/yaml.v3"
)

// Compile-time interface verification.
var _ autoeval.CriteriaLoader = (*Loader)(nil)

// document mirrors the criteria document. Fields that must be present are
// validated with struct tags; paths in errors use the yaml key names.
type document struct {
	EvaluationSteps *stepsDoc `yaml:"evaluation_steps" validate:"required"`
	Metadata        *metaDoc  `yaml:"metadata" validate:"required"`
}

type stepsDoc struct {
	Accuracy     []stepDoc `yaml:"accuracy" validate:"required,dive"`
	Completeness []stepDoc `yaml:"completeness" validate:"required,dive"`
}

type stepDoc struct {
	Criterion string `yaml:"criterion" validate:"required"`
	Weight    weight `yaml:"weight" validate:"required,weight"`
}

type metaDoc struct {
	Category   string `yaml:"category" validate:"required"`
	Experiment string `yaml:"experiment"`
	Repository string `yaml:"repository"`
	ScenarioID *int   `yaml:"scenario_id"`
}

// weight holds the raw scalar so that numbers and numeric strings are both
// accepted and anything else is reported against the field.
type weight string

func (w *weight) UnmarshalYAML(node *goyaml.Node) error {
	if node.Kind != goyaml.ScalarNode {
		return fmt.Errorf("line %d: weight must be a number", node.Line)
	}
	*w = weight(node.Value)
	return nil
}

func (w weight) float() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(w)), 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return f, nil
}

// Loader implements autoeval.CriteriaLoader.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("weight", func(fl validator.FieldLevel) bool {
		_, err := weight(fl.Field().String()).float()
		return err == nil
	})
	return &Loader{validate: v}
}

// Load parses src into Criteria. Structural problems are reported as
// *autoeval.ValidationError values, joined when there are several.
func (l *Loader) Load(src string) (*autoeval.Criteria, error) {
	var doc document
	if err := goyaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, &autoeval.ValidationError{Message: "cannot decode document", Err: err}
	}
	if err := l.validate.Struct(doc); err != nil {
		return nil, fieldErrors(err)
	}

	// Weights were checked by the "weight" validation above.
	steps := autoeval.CriteriaEvalSteps{
		Accuracy:     convertSteps(doc.EvaluationSteps.Accuracy),
		Completeness: convertSteps(doc.EvaluationSteps.Completeness),
	}
	meta := autoeval.CriteriaMeta{
		Category:   doc.Metadata.Category,
		Experiment: doc.Metadata.Experiment,
		Repository: doc.Metadata.Repository,
		ScenarioID: autoeval.DefaultScenarioID,
	}
	if doc.Metadata.ScenarioID != nil {
		meta.ScenarioID = *doc.Metadata.ScenarioID
	}
	return autoeval.NewCriteria(steps, meta)
}

func convertSteps(docs []stepDoc) []autoeval.CriterionEvalStep {
	steps := make([]autoeval.CriterionEvalStep, len(docs))
	for i, d := range docs {
		w, _ := d.Weight.float()
		steps[i] = autoeval.CriterionEvalStep{Criterion: d.Criterion, Weight: w}
	}
	return steps
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &autoeval.ValidationError{Message: "cannot validate document", Err: err}
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, &autoeval.ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return errors.Join(errs...)
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "weight":
		return fmt.Sprintf("must be a non-negative number, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
