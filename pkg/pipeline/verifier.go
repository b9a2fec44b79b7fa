package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

// VerificationReport summarizes the post-write checks on a cleaned dataset
type VerificationReport struct {
	Dataset         string
	ExpectedRows    int
	ActualRows      int
	RowCountMatch   bool
	StructureMatch  bool
	StructureIssues []string
	KeysUnique      bool
	DuplicateKeys   []string
	RoundTripEqual  bool
	Passed          bool
	VerifiedAt      time.Time
}

// Verifier re-reads a written dataset and checks it against the in-memory
// cleaned table: row count, column structure, composite-key uniqueness and
// full round-trip equality.
type Verifier struct {
	logger    *zap.Logger
	delimiter rune
}

// NewVerifier creates a verifier
func NewVerifier(logger *zap.Logger, delimiter rune) *Verifier {
	return &Verifier{
		logger:    logger,
		delimiter: delimiter,
	}
}

// Verify runs all checks against the file at path
func (v *Verifier) Verify(path string, cleaned *table.Table, schema *model.Schema) (*VerificationReport, error) {
	if cleaned == nil {
		return nil, errors.New("cleaned table cannot be nil")
	}

	written, err := table.ReadFile(path, table.ReadOptions{Delimiter: v.delimiter})
	if err != nil {
		return nil, fmt.Errorf("failed to re-read written dataset: %w", err)
	}
	written.Name = cleaned.Name

	report := &VerificationReport{
		Dataset:      cleaned.Name,
		ExpectedRows: cleaned.RowCount(),
		ActualRows:   written.RowCount(),
		VerifiedAt:   time.Now(),
	}

	report.RowCountMatch = report.ExpectedRows == report.ActualRows
	report.StructureIssues = v.compareStructure(cleaned, written)
	report.StructureMatch = len(report.StructureIssues) == 0
	report.DuplicateKeys = v.findDuplicateKeys(written, schema)
	report.KeysUnique = len(report.DuplicateKeys) == 0
	report.RoundTripEqual = cleaned.Equal(written)

	report.Passed = report.RowCountMatch && report.StructureMatch &&
		report.KeysUnique && report.RoundTripEqual

	v.logger.Info("Verification completed",
		zap.String("dataset", cleaned.Name),
		zap.Bool("passed", report.Passed),
		zap.Bool("rowCountMatch", report.RowCountMatch),
		zap.Bool("structureMatch", report.StructureMatch),
		zap.Bool("keysUnique", report.KeysUnique),
		zap.Bool("roundTripEqual", report.RoundTripEqual))

	return report, nil
}

// compareStructure checks that the written file carries the same columns
// in the same order
func (v *Verifier) compareStructure(expected, actual *table.Table) []string {
	var issues []string

	if len(expected.Columns) != len(actual.Columns) {
		issues = append(issues, fmt.Sprintf("expected %d columns, found %d",
			len(expected.Columns), len(actual.Columns)))
		return issues
	}

	for i, col := range expected.Columns {
		if actual.Columns[i] != col {
			issues = append(issues, fmt.Sprintf("column %d: expected %q, found %q",
				i, col, actual.Columns[i]))
		}
	}

	return issues
}

// findDuplicateKeys returns composite keys occurring more than once
func (v *Verifier) findDuplicateKeys(t *table.Table, schema *model.Schema) []string {
	seen := make(map[string]int, t.RowCount())
	var duplicates []string

	for _, row := range t.Rows {
		key := schema.KeyString(row)
		seen[key]++
		if seen[key] == 2 {
			duplicates = append(duplicates, key)
		}
	}

	return duplicates
}
