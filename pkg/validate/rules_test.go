package validate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

func testSchema() *model.Schema {
	return &model.Schema{
		Name: "test",
		Columns: []model.Column{
			{Name: "site", DataType: "string", Required: true, Allowed: []string{"S1", "S2"}},
			{Name: "taxon", DataType: "string", Required: true},
			{Name: "value", DataType: "float", Required: true},
		},
		KeyColumns:  []string{"site", "taxon"},
		ValueColumn: "value",
	}
}

func testTable(rows ...map[string]interface{}) *table.Table {
	t := table.New("test", []string{"site", "taxon", "value"})
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func TestEvaluateAccumulatesAllFindings(t *testing.T) {
	schema := testSchema()
	tbl := testTable(
		map[string]interface{}{"site": "S9", "taxon": "a", "value": "not-a-number"},
		map[string]interface{}{"site": "S1", "taxon": nil, "value": "2.0"},
	)

	rules, err := NewRuleSet(zap.NewNop(), SchemaRules(schema)...)
	require.NoError(t, err)

	findings := rules.Evaluate(tbl, schema)

	// One membership failure, one type failure, one missing taxon: all
	// reported, no short-circuit
	names := make(map[string]int)
	for _, f := range findings {
		names[f.Rule]++
	}
	assert.Equal(t, 1, names["membership"])
	assert.Equal(t, 1, names["type_float"])
	assert.Equal(t, 1, names["required"])
}

func TestEvaluateOrderIndependent(t *testing.T) {
	schema := testSchema()
	tbl := testTable(
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "1.0"},
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "2.0"},
		map[string]interface{}{"site": "S3", "taxon": "b", "value": "x"},
	)

	rules := SchemaRules(schema)

	baseline, err := NewRuleSet(zap.NewNop(), rules...)
	require.NoError(t, err)
	expected := baseline.Evaluate(tbl, schema)
	require.NotEmpty(t, expected)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Rule, len(rules))
		copy(shuffled, rules)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		permuted, err := NewRuleSet(zap.NewNop(), shuffled...)
		require.NoError(t, err)
		assert.Equal(t, expected, permuted.Evaluate(tbl, schema))
	}
}

func TestUniqueKeyRuleReportsDuplicatesOnce(t *testing.T) {
	schema := testSchema()
	tbl := testTable(
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "1"},
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "2"},
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "3"},
		map[string]interface{}{"site": "S2", "taxon": "a", "value": "4"},
	)

	findings := UniqueKeyRule().Check(tbl, schema)
	require.Len(t, findings, 1)
	assert.Equal(t, "S1|a", findings[0].RowKey)
}

func TestColumnCountRule(t *testing.T) {
	schema := testSchema()

	complete := testTable()
	assert.Empty(t, ColumnCountRule().Check(complete, schema))

	extra := table.New("test", []string{"site", "taxon", "value", "notes"})
	findings := ColumnCountRule().Check(extra, schema)
	require.NotEmpty(t, findings)
	assert.Equal(t, "column_count", findings[0].Rule)
}

func TestRangeRuleSkipsUnparseable(t *testing.T) {
	schema := testSchema()
	tbl := testTable(
		map[string]interface{}{"site": "S1", "taxon": "a", "value": "5.0"},
		map[string]interface{}{"site": "S1", "taxon": "b", "value": "500"},
		map[string]interface{}{"site": "S1", "taxon": "c", "value": "tall"},
	)

	findings := RangeRule("value", 0, 100).Check(tbl, schema)
	require.Len(t, findings, 1)
	assert.Equal(t, "S1|b", findings[0].RowKey)
}

func TestRowCountRule(t *testing.T) {
	schema := testSchema()
	tbl := testTable(map[string]interface{}{"site": "S1", "taxon": "a", "value": "1"})

	assert.Empty(t, RowCountRule(1).Check(tbl, schema))
	assert.Len(t, RowCountRule(10).Check(tbl, schema), 1)
}

func TestRulesNeverMutate(t *testing.T) {
	schema := testSchema()
	tbl := testTable(map[string]interface{}{"site": "S9", "taxon": "a", "value": "x"})

	rules, err := NewRuleSet(zap.NewNop(), SchemaRules(schema)...)
	require.NoError(t, err)
	rules.Evaluate(tbl, schema)

	assert.Equal(t, "S9", tbl.Cell(0, "site"))
	assert.Equal(t, "x", tbl.Cell(0, "value"))
}
