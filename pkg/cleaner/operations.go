// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"time"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
	"github.com/ecotraits/curate/pkg/taxonomy"
)

// SubstituteValue replaces one column's value on rows whose composite key
// equals rowKey. Every correction is analyst-specified after inspection of
// source evidence; nothing is inferred.
func SubstituteValue(rowKey, column string, newValue interface{}, reason string) Transform {
	return substitution("value_substitution", rowKey, column, newValue, reason)
}

// CorrectOutlier replaces an implausible measurement on the row with the
// given composite key. Same mechanics as SubstituteValue, logged under its
// own operation name so audits can separate typo fixes from outlier calls.
func CorrectOutlier(rowKey, column string, newValue interface{}, reason string) Transform {
	return substitution("outlier_correction", rowKey, column, newValue, reason)
}

func substitution(operation, rowKey, column string, newValue interface{}, reason string) Transform {
	return Transform{
		Name: operation,
		Apply: func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error) {
			if !t.HasColumn(column) {
				return nil, nil, fmt.Errorf("unknown column %q", column)
			}

			cleaned := t.Clone()
			var operations []model.CleaningOperation
			for _, row := range cleaned.Rows {
				if schema.KeyString(row) != rowKey {
					continue
				}
				original := row[column]
				row[column] = newValue
				operations = append(operations, model.CleaningOperation{
					Dataset:       t.Name,
					Column:        column,
					OriginalValue: original,
					NewValue:      model.ValueString(newValue),
					RowKey:        rowKey,
					Operation:     operation,
					Reason:        reason,
					AppliedAt:     time.Now(),
				})
			}
			return cleaned, operations, nil
		},
	}
}

// Deduplicate removes rows whose composite key repeats, keeping the first
// occurrence in input order. The key excludes the measurement column, so
// two entries of the same observation are duplicates even when the values
// disagree. Idempotent: a second application changes nothing.
func Deduplicate() Transform {
	return Transform{
		Name: "deduplication",
		Apply: func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error) {
			cleaned := table.New(t.Name, t.Columns)
			seen := make(map[string]struct{}, t.RowCount())
			var operations []model.CleaningOperation

			for _, row := range t.Rows {
				key := schema.KeyString(row)
				if _, dup := seen[key]; dup {
					operations = append(operations, model.CleaningOperation{
						Dataset:       t.Name,
						Column:        schema.ValueColumn,
						OriginalValue: row[schema.ValueColumn],
						NewValue:      "",
						RowKey:        key,
						Operation:     "deduplication",
						Reason:        "duplicate_composite_key",
						AppliedAt:     time.Now(),
					})
					continue
				}
				seen[key] = struct{}{}
				copied := make(map[string]interface{}, len(row))
				for k, v := range row {
					copied[k] = v
				}
				cleaned.Rows = append(cleaned.Rows, copied)
			}

			return cleaned, operations, nil
		},
	}
}

// NormalizeTaxa rewrites recognized taxon spellings to their canonical
// form using the dictionary. Unknown names are left untouched; they
// surface through validation instead.
func NormalizeTaxa(dict *taxonomy.Dictionary, column string) Transform {
	return Transform{
		Name: "taxon_normalization",
		Apply: func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error) {
			if dict == nil {
				return nil, nil, fmt.Errorf("taxon dictionary cannot be nil")
			}
			if !t.HasColumn(column) {
				return nil, nil, fmt.Errorf("unknown column %q", column)
			}

			cleaned := t.Clone()
			var operations []model.CleaningOperation
			for _, row := range cleaned.Rows {
				original := row[column]
				if original == nil {
					continue
				}
				name := model.ValueString(original)
				canonical, known := dict.Normalize(name)
				if !known || canonical == name {
					continue
				}
				// the key must identify the row as it was validated,
				// before the taxon segment changes
				rowKey := schema.KeyString(row)
				row[column] = canonical
				operations = append(operations, model.CleaningOperation{
					Dataset:       t.Name,
					Column:        column,
					OriginalValue: original,
					NewValue:      canonical,
					RowKey:        rowKey,
					Operation:     "taxon_normalization",
					Reason:        "synonym_of_canonical",
					AppliedAt:     time.Now(),
				})
			}
			return cleaned, operations, nil
		},
	}
}

// RescaleUnit multiplies a numeric column by factor, e.g. cm to mm with
// factor 10. Values that do not parse as numbers are left unchanged and
// logged as conversion failures.
func RescaleUnit(column string, factor float64, fromUnit, toUnit string) Transform {
	reason := fmt.Sprintf("rescaled_%s_to_%s", fromUnit, toUnit)
	return Transform{
		Name: "unit_rescaling",
		Apply: func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error) {
			if !t.HasColumn(column) {
				return nil, nil, fmt.Errorf("unknown column %q", column)
			}

			cleaned := t.Clone()
			var operations []model.CleaningOperation
			for _, row := range cleaned.Rows {
				original := row[column]
				if original == nil {
					continue
				}
				f, err := table.ToFloat(original)
				if err != nil {
					operations = append(operations, model.CleaningOperation{
						Dataset:       t.Name,
						Column:        column,
						OriginalValue: original,
						NewValue:      model.ValueString(original),
						RowKey:        schema.KeyString(row),
						Operation:     "unit_rescaling_failed",
						Reason:        fmt.Sprintf("cannot_convert_to_float: %v", err),
						AppliedAt:     time.Now(),
					})
					continue
				}
				rescaled := f * factor
				row[column] = rescaled
				operations = append(operations, model.CleaningOperation{
					Dataset:       t.Name,
					Column:        column,
					OriginalValue: original,
					NewValue:      model.ValueString(rescaled),
					RowKey:        schema.KeyString(row),
					Operation:     "unit_rescaling",
					Reason:        reason,
					AppliedAt:     time.Now(),
				})
			}
			return cleaned, operations, nil
		},
	}
}

// CoerceTypes standardizes every cell to its schema data type: floats and
// ints become numeric values, dates become the canonical YYYY-MM-DD form.
// Cells that fail to parse keep their original value and are logged so the
// failure shows up in the audit trail.
func CoerceTypes() Transform {
	return Transform{
		Name: "type_standardization",
		Apply: func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error) {
			cleaned := t.Clone()
			var operations []model.CleaningOperation

			for _, row := range cleaned.Rows {
				rowKey := schema.KeyString(row)
				for _, col := range schema.Columns {
					original := row[col.Name]
					if original == nil {
						continue
					}

					standardized, op := standardizeValue(original, &col, rowKey, t.Name)
					if op != nil {
						operations = append(operations, *op)
					}
					row[col.Name] = standardized
				}
			}

			return cleaned, operations, nil
		},
	}
}

// standardizeValue coerces one cell to its column's data type
func standardizeValue(value interface{}, col *model.Column, rowKey, dataset string) (interface{}, *model.CleaningOperation) {
	var (
		converted interface{}
		err       error
	)

	switch col.DataType {
	case "int":
		converted, err = table.ToInt(value)
		if _, ok := value.(int64); ok && err == nil {
			return value, nil
		}
	case "float":
		converted, err = table.ToFloat(value)
		if _, ok := value.(float64); ok && err == nil {
			return value, nil
		}
	case "date":
		var parsed time.Time
		parsed, err = table.ToTime(value)
		if err == nil {
			canonical := parsed.Format("2006-01-02")
			if canonical == model.ValueString(value) {
				return canonical, nil
			}
			converted = canonical
		}
	default:
		return value, nil
	}

	if err != nil {
		return value, &model.CleaningOperation{
			Dataset:       dataset,
			Column:        col.Name,
			OriginalValue: value,
			NewValue:      model.ValueString(value),
			RowKey:        rowKey,
			Operation:     "type_standardization_failed",
			Reason:        fmt.Sprintf("cannot_convert_to_%s: %v", col.DataType, err),
			AppliedAt:     time.Now(),
		}
	}

	newValue := model.ValueString(converted)
	if newValue == model.ValueString(value) {
		return converted, nil
	}

	return converted, &model.CleaningOperation{
		Dataset:       dataset,
		Column:        col.Name,
		OriginalValue: value,
		NewValue:      newValue,
		RowKey:        rowKey,
		Operation:     "type_standardization",
		Reason:        fmt.Sprintf("converted_to_%s", col.DataType),
		AppliedAt:     time.Now(),
	}
}
