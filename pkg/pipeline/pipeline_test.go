package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/audit"
	"github.com/ecotraits/curate/pkg/cleaner"
	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/taxonomy"
	"github.com/ecotraits/curate/pkg/validate"
)

const sampleObservations = `date,gradient,site,plot,individual,specimen_id,taxon,trait,value,elevation_m
2023-07-12,north,S1,P1,1,SP-001,Salix herbacea,leaf_area,23.4,950
2023-07-12,north,S1,P1,1,SP-001,Salix herbacea,leaf_area,23.4,950
2023-07-12,north,S1,P1,2,SP-002,salix herbacia,leaf_area,19.1,950
2023-07-12,north,S1,P2,1,SP-003,Bistorta vivipara,leaf_area,11.0,950
`

const sampleDictionary = `
taxa:
  - canonical: "Salix herbacea"
    synonyms: ["salix herbacia"]
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestManager(t *testing.T, outputDir string, recorder cleaner.Recorder) *Manager {
	t.Helper()
	logger := zap.NewNop()
	schema := model.DefaultSchema("observations")

	rules, err := validate.NewRuleSet(logger, validate.SchemaRules(schema)...)
	require.NoError(t, err)

	dict, err := taxonomy.Parse([]byte(sampleDictionary))
	require.NoError(t, err)

	dataCleaner, err := cleaner.NewCleaner(logger, recorder,
		cleaner.NormalizeTaxa(dict, model.ColTaxon),
		cleaner.Deduplicate(),
	)
	require.NoError(t, err)

	return NewManager(schema, rules, dataCleaner, logger, outputDir, ',')
}

func TestCurateFileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeFixture(t, dir, "observations.csv", sampleObservations)

	recorder := audit.NewMemoryRecorder()
	manager := newTestManager(t, filepath.Join(dir, "out"), recorder)

	result, err := manager.CurateFile(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 4, result.RowsRead)
	assert.Equal(t, 3, result.RowsWritten, "exact duplicate row removed")
	assert.Equal(t, 1, result.RowsRemoved)
	assert.True(t, result.Verified)

	// The duplicate key shows up before cleaning and is gone afterwards
	assert.NotEmpty(t, result.PreFindings)
	for _, finding := range result.PostFindings {
		assert.NotEqual(t, "unique_key", finding.Rule)
	}

	// Taxon normalization plus the dedup removal land in the audit trail
	assert.Equal(t, result.CleaningOps, len(recorder.Operations()))
	assert.GreaterOrEqual(t, result.CleaningOps, 2)

	// Cleaned file exists and carries the canonical spelling
	content, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "salix herbacia")
	assert.Contains(t, string(content), "Salix herbacea")
}

func TestCurateFileMissingInputRetriesThenFails(t *testing.T) {
	dir := t.TempDir()
	manager := newTestManager(t, filepath.Join(dir, "out"), nil)

	result, err := manager.CurateFile(context.Background(), filepath.Join(dir, "nope.csv"))
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)

	// The read is retried up to the job's retry budget before the dataset
	// fails, and the error lands in the I/O category
	assert.Equal(t, ErrorCategoryIOLevel, result.Errors[0].Category)
	assert.Equal(t, 2, result.RetryCount)
}

func TestProcessJobSkipsDatasetOverErrorThreshold(t *testing.T) {
	dir := t.TempDir()
	input := writeFixture(t, dir, "observations.csv", sampleObservations)

	logger := zap.NewNop()
	schema := model.DefaultSchema("observations")
	rules, err := validate.NewRuleSet(logger, validate.SchemaRules(schema)...)
	require.NoError(t, err)
	dataCleaner, err := cleaner.NewCleaner(logger, nil)
	require.NoError(t, err)

	handler := NewErrorHandler(logger)
	for i := 0; i < 5; i++ {
		handler.RecordError(NewErrorRecord(fmt.Errorf("row %d failed", i), ErrorCategoryRowLevel).
			WithDataset("observations"))
	}

	worker := NewWorker(0, "run-skip", schema, rules, dataCleaner,
		NewVerifier(logger, ','), handler, logger, filepath.Join(dir, "out"), ',')

	result := worker.ProcessJob(context.Background(), NewDatasetJob(input, "observations"))

	assert.False(t, result.Success)
	assert.Zero(t, result.RowsRead, "dataset over threshold is not even read")
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, ErrorCategoryDatasetLevel, result.Errors[0].Category)
}

func TestRunCuratesMultipleDatasets(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "north.csv", sampleObservations)
	writeFixture(t, dir, "south.csv", sampleObservations)

	manager := newTestManager(t, filepath.Join(dir, "out"), nil).WithWorkerCount(2)

	paths, err := manager.DiscoverDatasets(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	summary, err := manager.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SuccessfulDatasets)
	assert.Empty(t, summary.FailedDatasets)
	assert.Equal(t, 8, summary.TotalRowsRead)
	assert.Equal(t, 6, summary.TotalRowsWritten)
	assert.Equal(t, 100.0, summary.SuccessRate())

	report := manager.GenerateReport()
	assert.Contains(t, report, "Curation Run Report")
	assert.Contains(t, report, "Throughput:")
	assert.Contains(t, report, "north")
	assert.Contains(t, report, "south")
}

func TestRunWithNoDatasets(t *testing.T) {
	manager := newTestManager(t, t.TempDir(), nil)
	_, err := manager.Run(context.Background(), nil)
	assert.Error(t, err)
}
