package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/cleaner"
	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/validate"
)

// Manager orchestrates a curation run over one or more datasets
type Manager struct {
	runID        string
	schema       *model.Schema
	rules        *validate.RuleSet
	cleaner      *cleaner.Cleaner
	verifier     *Verifier
	errorHandler *ErrorHandler
	metrics      *RunMetrics
	logger       *zap.Logger
	outputDir    string
	delimiter    rune
	workerCount  int
}

// NewManager creates a curation run manager
func NewManager(
	schema *model.Schema,
	rules *validate.RuleSet,
	dataCleaner *cleaner.Cleaner,
	logger *zap.Logger,
	outputDir string,
	delimiter rune,
) *Manager {
	return &Manager{
		runID:        uuid.New().String(),
		schema:       schema,
		rules:        rules,
		cleaner:      dataCleaner,
		verifier:     NewVerifier(logger, delimiter),
		errorHandler: NewErrorHandler(logger),
		metrics:      NewRunMetrics(logger),
		logger:       logger,
		outputDir:    outputDir,
		delimiter:    delimiter,
		workerCount:  defaultWorkerCount(),
	}
}

// WithWorkerCount sets the number of worker goroutines
func (m *Manager) WithWorkerCount(count int) *Manager {
	if count > 0 {
		m.workerCount = count
	}
	return m
}

// RunID returns the unique identifier of this run
func (m *Manager) RunID() string {
	return m.runID
}

// DiscoverDatasets lists delimited files under dir
func (m *Manager) DiscoverDatasets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".csv" || ext == ".tsv" || ext == ".txt" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	return paths, nil
}

// Run curates every given dataset using a worker pool and returns the run
// summary
func (m *Manager) Run(ctx context.Context, paths []string) (*RunSummary, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no datasets to curate")
	}

	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m.logger.Info("Starting curation run",
		zap.String("runID", m.runID),
		zap.Int("datasets", len(paths)),
		zap.Int("workers", m.workerCount))

	summary := NewRunSummary(m.runID)

	jobs := make(chan DatasetJob, len(paths))
	results := make(chan DatasetResult, len(paths))

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	for i := 0; i < m.workerCount; i++ {
		worker := NewWorker(i, m.runID, m.schema, m.rules, m.cleaner,
			m.verifier, m.errorHandler, m.logger, m.outputDir, m.delimiter)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(workerCtx, jobs, results)
		}()
	}

	for _, path := range paths {
		dataset := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		job := NewDatasetJob(path, dataset)
		select {
		case jobs <- job:
			m.logger.Debug("Submitted job",
				zap.String("dataset", job.Dataset),
				zap.String("jobID", job.ID))
		case <-ctx.Done():
			close(jobs)
			return nil, ctx.Err()
		}
	}
	close(jobs)

	// Close results once all workers are done
	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		m.metrics.RecordDataset(result)
		summary.AddResult(result)

		if m.errorHandler.ShouldAbortRun() {
			m.logger.Error("Aborting run due to error threshold",
				zap.String("runID", m.runID))
			cancelWorkers()
			break
		}
	}

	m.metrics.Complete()
	summary.Complete()

	m.logger.Info("Curation run completed",
		zap.String("runID", m.runID),
		zap.Int("successfulDatasets", summary.SuccessfulDatasets),
		zap.Int("failedDatasets", len(summary.FailedDatasets)),
		zap.Int("rowsRead", summary.TotalRowsRead),
		zap.Int("rowsWritten", summary.TotalRowsWritten),
		zap.Int("cleaningOps", summary.TotalCleaningOps),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// CurateFile curates a single dataset without the worker pool
func (m *Manager) CurateFile(ctx context.Context, path string) (*DatasetResult, error) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	dataset := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	job := NewDatasetJob(path, dataset)

	worker := NewWorker(-1, m.runID, m.schema, m.rules, m.cleaner,
		m.verifier, m.errorHandler, m.logger, m.outputDir, m.delimiter)

	result := worker.ProcessJob(ctx, job)
	m.metrics.RecordDataset(result)

	return &result, nil
}

// GetMetrics returns the run metrics
func (m *Manager) GetMetrics() *RunMetrics {
	return m.metrics
}

// GetErrorSummary returns error counts by category
func (m *Manager) GetErrorSummary() map[ErrorCategory]int {
	return m.errorHandler.GetErrorSummary()
}

// GenerateReport generates a human-readable run report
func (m *Manager) GenerateReport() string {
	return m.metrics.GenerateReport()
}

// defaultWorkerCount sizes the pool from the CPU count, capped because
// datasets are small and the work is I/O light
func defaultWorkerCount() int {
	count := runtime.NumCPU()
	if count < 2 {
		return 2
	}
	if count > 8 {
		return 8
	}
	return count
}
