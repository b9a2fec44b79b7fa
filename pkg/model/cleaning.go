// pkg/model/cleaning.go
package model

import (
	"fmt"
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	Dataset       string      // Dataset (file) name
	Column        string      // Column that was cleaned
	OriginalValue interface{} // Original value (may be nil)
	NewValue      string      // New value after cleaning
	RowKey        string      // Composite key identifying the row
	Operation     string      // Type of cleaning performed (e.g., "taxon_normalization")
	Reason        string      // Reason for cleaning (e.g., "synonym_of_canonical")
	AppliedAt     time.Time   // When the cleaning occurred
}

// TransformSummary records one transform's place in the cleaning log:
// the transform name and how many rows it touched. The log is ordered
// and kept for audit, not replay.
type TransformSummary struct {
	Name         string
	RowsAffected int
	Operations   []CleaningOperation
}

// ValueString converts a cell value to its canonical string form
func ValueString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return fmt.Sprintf("%g", val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// NullableString safely converts a cell value to a nullable string
func NullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := ValueString(v)
	return &s
}
