// pkg/model/observation.go
package model

import "strings"

// Well-known column names for trait observation tables
const (
	ColDate       = "date"
	ColGradient   = "gradient"
	ColSite       = "site"
	ColPlot       = "plot"
	ColIndividual = "individual"
	ColSpecimenID = "specimen_id"
	ColTaxon      = "taxon"
	ColTrait      = "trait"
	ColValue      = "value"
	ColElevation  = "elevation_m"
)

// Column represents metadata about a table column
type Column struct {
	Name     string   // Column name
	DataType string   // Expected type: "string", "int", "float", "date"
	Allowed  []string // Closed value set, empty means unrestricted
	Required bool     // Whether empty values are a finding
}

// Schema contains the structure information for an observation table
type Schema struct {
	Name        string   // Dataset name
	Columns     []Column // Column definitions in file order
	KeyColumns  []string // Columns forming the composite observation key
	ValueColumn string   // Measurement column, excluded from the key
}

// DefaultSchema returns the documented column set for trait observation
// files: one measurement per row, keyed by collection context plus taxon
// and trait name.
func DefaultSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: ColDate, DataType: "date", Required: true},
			{Name: ColGradient, DataType: "string", Required: true},
			{Name: ColSite, DataType: "string", Required: true},
			{Name: ColPlot, DataType: "string", Required: true},
			{Name: ColIndividual, DataType: "int", Required: true},
			{Name: ColSpecimenID, DataType: "string", Required: true},
			{Name: ColTaxon, DataType: "string", Required: true},
			{Name: ColTrait, DataType: "string", Required: true},
			{Name: ColValue, DataType: "float", Required: true},
			{Name: ColElevation, DataType: "float"},
		},
		KeyColumns: []string{
			ColDate, ColGradient, ColSite, ColPlot,
			ColIndividual, ColSpecimenID, ColTaxon, ColTrait,
		},
		ValueColumn: ColValue,
	}
}

// ColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (s *Schema) ColumnByName(name string) *Column {
	normalized := normalizeColumnName(name)
	for i, col := range s.Columns {
		if normalizeColumnName(col.Name) == normalized {
			return &s.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the schema's column names in file order
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// KeyString builds the composite key string for a row by joining the key
// column values with "|". Missing columns contribute an empty segment so
// the key stays positional.
func (s *Schema) KeyString(row map[string]interface{}) string {
	parts := make([]string, len(s.KeyColumns))
	for i, col := range s.KeyColumns {
		if v, ok := row[col]; ok && v != nil {
			parts[i] = ValueString(v)
		}
	}
	return strings.Join(parts, "|")
}

// Helper functions for case-insensitive string operations
func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
