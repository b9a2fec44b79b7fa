// pkg/table/table.go
package table

import (
	"fmt"

	"github.com/ecotraits/curate/pkg/model"
)

// Table is an in-memory tabular dataset: an ordered column list plus rows
// stored as column-name keyed maps. Rows preserve input order.
type Table struct {
	Name    string
	Columns []string
	Rows    []map[string]interface{}
}

// New creates an empty table with the given column order
func New(name string, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([]map[string]interface{}, 0),
	}
}

// Clone returns a deep copy of the table. Transforms operate on copies so
// the input table is never mutated.
func (t *Table) Clone() *Table {
	clone := New(t.Name, t.Columns)
	clone.Rows = make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		copied := make(map[string]interface{}, len(row))
		for k, v := range row {
			copied[k] = v
		}
		clone.Rows = append(clone.Rows, copied)
	}
	return clone
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// HasColumn checks whether the table carries the named column
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// AppendRow adds a row to the table. Cells for unknown columns are dropped
// so the column order stays authoritative.
func (t *Table) AppendRow(row map[string]interface{}) {
	kept := make(map[string]interface{}, len(t.Columns))
	for _, col := range t.Columns {
		if v, ok := row[col]; ok {
			kept[col] = v
		}
	}
	t.Rows = append(t.Rows, kept)
}

// Cell returns the value at (row, column), nil if absent
func (t *Table) Cell(row int, column string) interface{} {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][column]
}

// Float returns the cell at (row, column) coerced to float64
func (t *Table) Float(row int, column string) (float64, error) {
	v := t.Cell(row, column)
	if v == nil {
		return 0, fmt.Errorf("row %d, column %s: no value", row, column)
	}
	return ToFloat(v)
}

// DistinctStrings returns the distinct string forms of a column's values,
// in first-seen order.
func (t *Table) DistinctStrings(column string) []string {
	seen := make(map[string]struct{})
	distinct := make([]string, 0)
	for _, row := range t.Rows {
		s := model.ValueString(row[column])
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}
	return distinct
}

// Equal reports whether two tables have identical columns and cell values,
// comparing cells by canonical string form. Used for round-trip checks
// where read-back values are strings.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i, col := range t.Columns {
		if other.Columns[i] != col {
			return false
		}
	}
	for i, row := range t.Rows {
		for _, col := range t.Columns {
			if model.ValueString(row[col]) != model.ValueString(other.Rows[i][col]) {
				return false
			}
		}
	}
	return true
}
