// pkg/cleaner/plan.go
package cleaner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/taxonomy"
)

// PlanStep is one entry of a cleaning plan file. The analyst writes the
// plan after inspecting source evidence; the pipeline only executes it.
type PlanStep struct {
	Op     string  `yaml:"op"`               // substitute, outlier, dedupe, normalize_taxa, rescale, coerce_types
	Key    string  `yaml:"key,omitempty"`    // composite row key for row-scoped steps
	Column string  `yaml:"column,omitempty"` // target column
	Value  string  `yaml:"value,omitempty"`  // replacement value
	Reason string  `yaml:"reason,omitempty"` // audit reason
	Factor float64 `yaml:"factor,omitempty"` // rescale factor
	From   string  `yaml:"from,omitempty"`   // source unit
	To     string  `yaml:"to,omitempty"`     // target unit
}

// Plan is an ordered list of cleaning steps loaded from YAML
type Plan struct {
	Transforms []PlanStep `yaml:"transforms"`
}

// LoadPlan reads a cleaning plan from a YAML file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cleaning plan %s: %w", path, err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse cleaning plan %s: %w", path, err)
	}

	return &plan, nil
}

// Build converts the plan into executable transforms. The dictionary is
// required only when the plan contains a normalize_taxa step.
func (p *Plan) Build(dict *taxonomy.Dictionary) ([]Transform, error) {
	transforms := make([]Transform, 0, len(p.Transforms))
	for i, step := range p.Transforms {
		transform, err := buildStep(step, dict)
		if err != nil {
			return nil, fmt.Errorf("plan step %d (%s): %w", i+1, step.Op, err)
		}
		transforms = append(transforms, transform)
	}
	return transforms, nil
}

func buildStep(step PlanStep, dict *taxonomy.Dictionary) (Transform, error) {
	switch step.Op {
	case "substitute":
		if step.Key == "" || step.Column == "" {
			return Transform{}, fmt.Errorf("substitute requires key and column")
		}
		return SubstituteValue(step.Key, step.Column, step.Value, step.Reason), nil
	case "outlier":
		if step.Key == "" || step.Column == "" {
			return Transform{}, fmt.Errorf("outlier requires key and column")
		}
		return CorrectOutlier(step.Key, step.Column, step.Value, step.Reason), nil
	case "dedupe":
		return Deduplicate(), nil
	case "normalize_taxa":
		if dict == nil {
			return Transform{}, fmt.Errorf("normalize_taxa requires a taxon dictionary")
		}
		column := step.Column
		if column == "" {
			column = model.ColTaxon
		}
		return NormalizeTaxa(dict, column), nil
	case "rescale":
		if step.Column == "" || step.Factor == 0 {
			return Transform{}, fmt.Errorf("rescale requires column and a non-zero factor")
		}
		return RescaleUnit(step.Column, step.Factor, step.From, step.To), nil
	case "coerce_types":
		return CoerceTypes(), nil
	default:
		return Transform{}, fmt.Errorf("unknown operation %q", step.Op)
	}
}
