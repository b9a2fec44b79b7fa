// pkg/validate/rules.go
package validate

import (
	"fmt"
	"strings"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

// Finding is a single data-quality diagnostic produced by a rule. Findings
// are informational: nothing is corrected automatically and a failed rule
// requires a human decision.
type Finding struct {
	Rule    string      // Rule that produced the finding
	Column  string      // Column involved, empty for table-level findings
	RowKey  string      // Composite key of the offending row, if row-scoped
	Value   interface{} // Offending value, if any
	Message string      // Human-readable description
}

// String renders the finding for reports and logs
func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Rule)
	if f.Column != "" {
		fmt.Fprintf(&b, " [%s]", f.Column)
	}
	if f.RowKey != "" {
		fmt.Fprintf(&b, " row=%s", f.RowKey)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

// Rule is a pure predicate over one column or the whole table. Rules are
// independent and never mutate the table; evaluation order does not affect
// the final finding set.
type Rule struct {
	Name   string
	Column string // empty for table-level rules
	Check  func(t *table.Table, schema *model.Schema) []Finding
}

// ColumnCountRule checks that the table carries exactly the schema's
// columns, in any order.
func ColumnCountRule() Rule {
	return Rule{
		Name: "column_count",
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			var findings []Finding
			if t.ColumnCount() != len(schema.Columns) {
				findings = append(findings, Finding{
					Rule: "column_count",
					Message: fmt.Sprintf("expected %d columns, found %d",
						len(schema.Columns), t.ColumnCount()),
				})
			}
			for _, col := range schema.Columns {
				if !t.HasColumn(col.Name) {
					findings = append(findings, Finding{
						Rule:    "column_count",
						Column:  col.Name,
						Message: "schema column missing from table",
					})
				}
			}
			for _, col := range t.Columns {
				if schema.ColumnByName(col) == nil {
					findings = append(findings, Finding{
						Rule:    "column_count",
						Column:  col,
						Message: "table column not in schema",
					})
				}
			}
			return findings
		},
	}
}

// RowCountRule checks that the table has at least min rows
func RowCountRule(min int) Rule {
	return Rule{
		Name: "row_count",
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			if t.RowCount() >= min {
				return nil
			}
			return []Finding{{
				Rule:    "row_count",
				Message: fmt.Sprintf("expected at least %d rows, found %d", min, t.RowCount()),
			}}
		},
	}
}

// TypeRule checks that every non-empty value in a column parses as the
// given data type ("int", "float" or "date").
func TypeRule(column, dataType string) Rule {
	name := fmt.Sprintf("type_%s", dataType)
	return Rule{
		Name:   name,
		Column: column,
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			var findings []Finding
			for _, row := range t.Rows {
				v := row[column]
				if v == nil {
					continue // missing values are RequiredRule's concern
				}
				var err error
				switch dataType {
				case "int":
					_, err = table.ToInt(v)
				case "float":
					_, err = table.ToFloat(v)
				case "date":
					_, err = table.ToTime(v)
				default:
					continue
				}
				if err != nil {
					findings = append(findings, Finding{
						Rule:    name,
						Column:  column,
						RowKey:  schema.KeyString(row),
						Value:   v,
						Message: fmt.Sprintf("expected %s, got %q", dataType, model.ValueString(v)),
					})
				}
			}
			return findings
		},
	}
}

// MembershipRule checks that every non-empty value in a column belongs to
// the allowed set.
func MembershipRule(column string, allowed []string) Rule {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return Rule{
		Name:   "membership",
		Column: column,
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			var findings []Finding
			for _, row := range t.Rows {
				v := row[column]
				if v == nil {
					continue
				}
				s := model.ValueString(v)
				if _, ok := set[s]; !ok {
					findings = append(findings, Finding{
						Rule:    "membership",
						Column:  column,
						RowKey:  schema.KeyString(row),
						Value:   v,
						Message: fmt.Sprintf("value %q not in allowed set", s),
					})
				}
			}
			return findings
		},
	}
}

// RequiredRule checks that a column has no missing values
func RequiredRule(column string) Rule {
	return Rule{
		Name:   "required",
		Column: column,
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			var findings []Finding
			for _, row := range t.Rows {
				if row[column] == nil {
					findings = append(findings, Finding{
						Rule:    "required",
						Column:  column,
						RowKey:  schema.KeyString(row),
						Message: "missing value in required column",
					})
				}
			}
			return findings
		},
	}
}

// UniqueKeyRule checks that the schema's composite key is unique across
// rows. The domain assumes one measurement per key; duplicates are the
// classic field-sheet double entry.
func UniqueKeyRule() Rule {
	return Rule{
		Name: "unique_key",
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			seen := make(map[string]int)
			var findings []Finding
			for _, row := range t.Rows {
				key := schema.KeyString(row)
				seen[key]++
				if seen[key] == 2 {
					// report each duplicated key once
					findings = append(findings, Finding{
						Rule:    "unique_key",
						RowKey:  key,
						Message: "composite key occurs more than once",
					})
				}
			}
			return findings
		},
	}
}

// RangeRule checks that a numeric column's parseable values lie within
// [min, max]. Unparseable values are TypeRule's concern.
func RangeRule(column string, min, max float64) Rule {
	return Rule{
		Name:   "range",
		Column: column,
		Check: func(t *table.Table, schema *model.Schema) []Finding {
			var findings []Finding
			for i, row := range t.Rows {
				if row[column] == nil {
					continue
				}
				f, err := t.Float(i, column)
				if err != nil {
					continue
				}
				if f < min || f > max {
					findings = append(findings, Finding{
						Rule:    "range",
						Column:  column,
						RowKey:  schema.KeyString(row),
						Value:   row[column],
						Message: fmt.Sprintf("value %g outside [%g, %g]", f, min, max),
					})
				}
			}
			return findings
		},
	}
}

// SchemaRules builds the standard rule list for a schema: column count,
// per-column type and required checks, membership for closed value sets,
// and composite-key uniqueness.
func SchemaRules(schema *model.Schema) []Rule {
	rules := []Rule{ColumnCountRule(), UniqueKeyRule()}
	for _, col := range schema.Columns {
		if col.Required {
			rules = append(rules, RequiredRule(col.Name))
		}
		switch col.DataType {
		case "int", "float", "date":
			rules = append(rules, TypeRule(col.Name, col.DataType))
		}
		if len(col.Allowed) > 0 {
			rules = append(rules, MembershipRule(col.Name, col.Allowed))
		}
	}
	return rules
}
