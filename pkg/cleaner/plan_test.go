package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotraits/curate/pkg/taxonomy"
)

const samplePlan = `
transforms:
  - op: substitute
    key: "S1|a"
    column: value
    value: "1.0"
    reason: checked_against_scan
  - op: rescale
    column: value
    factor: 10
    from: cm
    to: mm
  - op: normalize_taxa
  - op: dedupe
  - op: coerce_types
`

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Transforms, 5)
	assert.Equal(t, "substitute", plan.Transforms[0].Op)
	assert.Equal(t, 10.0, plan.Transforms[1].Factor)
}

func TestPlanBuildPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)

	dict, err := taxonomy.Parse([]byte(`taxa: [{canonical: "Salix herbacea"}]`))
	require.NoError(t, err)

	transforms, err := plan.Build(dict)
	require.NoError(t, err)
	require.Len(t, transforms, 5)

	names := make([]string, len(transforms))
	for i, tr := range transforms {
		names[i] = tr.Name
	}
	assert.Equal(t, []string{
		"value_substitution",
		"unit_rescaling",
		"taxon_normalization",
		"deduplication",
		"type_standardization",
	}, names)
}

func TestPlanBuildRejectsUnknownOp(t *testing.T) {
	plan := &Plan{Transforms: []PlanStep{{Op: "transmogrify"}}}
	_, err := plan.Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestPlanBuildRequiresDictionaryForTaxa(t *testing.T) {
	plan := &Plan{Transforms: []PlanStep{{Op: "normalize_taxa"}}}
	_, err := plan.Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dictionary")
}

func TestPlanBuildValidatesSteps(t *testing.T) {
	plan := &Plan{Transforms: []PlanStep{{Op: "substitute", Column: "value"}}}
	_, err := plan.Build(nil)
	assert.Error(t, err, "substitute without a key must fail")

	plan = &Plan{Transforms: []PlanStep{{Op: "rescale", Column: "value"}}}
	_, err = plan.Build(nil)
	assert.Error(t, err, "rescale without a factor must fail")
}
