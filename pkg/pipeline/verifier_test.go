package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

func verifierFixture(t *testing.T) (*table.Table, *model.Schema) {
	t.Helper()
	tbl, err := table.Read(strings.NewReader(sampleObservations), "observations",
		table.ReadOptions{Delimiter: ',', TrimCells: true})
	require.NoError(t, err)
	// drop the duplicate second row so keys are unique
	tbl.Rows = append(tbl.Rows[:1], tbl.Rows[2:]...)
	return tbl, model.DefaultSchema("observations")
}

func TestVerifyPassesOnFaithfulWrite(t *testing.T) {
	tbl, schema := verifierFixture(t)
	path := filepath.Join(t.TempDir(), "observations_clean.csv")
	require.NoError(t, tbl.WriteFile(path, ','))

	verifier := NewVerifier(zap.NewNop(), ',')
	report, err := verifier.Verify(path, tbl, schema)
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.True(t, report.RowCountMatch)
	assert.True(t, report.StructureMatch)
	assert.True(t, report.KeysUnique)
	assert.True(t, report.RoundTripEqual)
	assert.Equal(t, tbl.RowCount(), report.ActualRows)
}

func TestVerifyDetectsTampering(t *testing.T) {
	tbl, schema := verifierFixture(t)
	path := filepath.Join(t.TempDir(), "observations_clean.csv")
	require.NoError(t, tbl.WriteFile(path, ','))

	// mutate one cell on disk after writing
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := []byte(string(content[:len(content)-len("950\n")]) + "951\n")
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	verifier := NewVerifier(zap.NewNop(), ',')
	report, err := verifier.Verify(path, tbl, schema)
	require.NoError(t, err)

	assert.False(t, report.Passed)
	assert.False(t, report.RoundTripEqual)
	assert.True(t, report.RowCountMatch, "only a value changed, not the shape")
}

func TestVerifyDetectsDuplicateKeys(t *testing.T) {
	tbl, err := table.Read(strings.NewReader(sampleObservations), "observations",
		table.ReadOptions{Delimiter: ',', TrimCells: true})
	require.NoError(t, err)
	schema := model.DefaultSchema("observations")

	path := filepath.Join(t.TempDir(), "observations_clean.csv")
	require.NoError(t, tbl.WriteFile(path, ','))

	verifier := NewVerifier(zap.NewNop(), ',')
	report, err := verifier.Verify(path, tbl, schema)
	require.NoError(t, err)

	assert.False(t, report.Passed)
	assert.False(t, report.KeysUnique)
	require.Len(t, report.DuplicateKeys, 1)
}

func TestVerifyMissingFile(t *testing.T) {
	tbl, schema := verifierFixture(t)
	verifier := NewVerifier(zap.NewNop(), ',')

	_, err := verifier.Verify(filepath.Join(t.TempDir(), "absent.csv"), tbl, schema)
	assert.Error(t, err)
}
