package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/cleaner"
	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
	"github.com/ecotraits/curate/pkg/validate"
)

// WorkerState describes what a worker is currently doing
type WorkerState string

const (
	WorkerStateIdle       WorkerState = "idle"
	WorkerStateProcessing WorkerState = "processing"
	WorkerStateStopped    WorkerState = "stopped"
)

// Worker curates one dataset at a time: read, validate, clean,
// re-validate, write, verify
type Worker struct {
	id           int
	schema       *model.Schema
	rules        *validate.RuleSet
	cleaner      *cleaner.Cleaner
	verifier     *Verifier
	errorHandler *ErrorHandler
	logger       *zap.Logger
	runID        string
	outputDir    string
	delimiter    rune
	state        WorkerState
	stateMu      sync.Mutex
}

// NewWorker creates a new worker
func NewWorker(
	id int,
	runID string,
	schema *model.Schema,
	rules *validate.RuleSet,
	dataCleaner *cleaner.Cleaner,
	verifier *Verifier,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
	outputDir string,
	delimiter rune,
) *Worker {
	return &Worker{
		id:           id,
		runID:        runID,
		schema:       schema,
		rules:        rules,
		cleaner:      dataCleaner,
		verifier:     verifier,
		errorHandler: errorHandler,
		logger:       logger.With(zap.Int("workerID", id)),
		outputDir:    outputDir,
		delimiter:    delimiter,
		state:        WorkerStateIdle,
	}
}

// GetState returns the worker's current state
func (w *Worker) GetState() WorkerState {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.state
}

func (w *Worker) setState(state WorkerState) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	w.state = state
}

// Start consumes jobs until the channel closes or the context is cancelled
func (w *Worker) Start(ctx context.Context, jobs <-chan DatasetJob, results chan<- DatasetResult) {
	defer w.setState(WorkerStateStopped)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Worker stopping: context cancelled")
			return
		case job, ok := <-jobs:
			if !ok {
				w.logger.Debug("Worker stopping: job channel closed")
				return
			}

			w.setState(WorkerStateProcessing)
			result := w.ProcessJob(ctx, job)
			w.setState(WorkerStateIdle)

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// ProcessJob curates a single dataset and returns its result
func (w *Worker) ProcessJob(ctx context.Context, job DatasetJob) DatasetResult {
	result := NewDatasetResult(job, w.id)

	if w.errorHandler.ShouldSkipDataset(job.Dataset) {
		record := NewErrorRecord(
			fmt.Errorf("dataset %s exceeded its error threshold", job.Dataset),
			ErrorCategoryDatasetLevel).WithDataset(job.Dataset)
		result.AddError(record)
		result.Complete(false)
		return *result
	}

	w.logger.Info("Curating dataset",
		zap.String("dataset", job.Dataset),
		zap.String("path", job.Path),
		zap.String("jobID", job.ID))

	// Read, retrying transient I/O failures per the error policy
	var t *table.Table
	for {
		var err error
		t, err = table.ReadFile(job.Path, table.ReadOptions{Delimiter: w.delimiter, TrimCells: true})
		if err == nil {
			break
		}
		record := NewErrorRecord(err, w.errorHandler.CategorizeError(err)).
			WithDataset(job.Dataset).
			WithRetry(job.RetryCount)
		if w.errorHandler.HandleError(record) == ActionRetry && job.IsRetryable() {
			job = job.Retry()
			result.RetryCount = job.RetryCount
			continue
		}
		result.AddError(record)
		result.Complete(false)
		return *result
	}
	t.Name = job.Dataset
	result.RowsRead = t.RowCount()

	// Validate before cleaning; failures accumulate and never halt the run
	result.PreFindings = w.rules.Evaluate(t, w.schema)
	for _, finding := range result.PreFindings {
		record := NewErrorRecord(fmt.Errorf("%s", finding.Message), ErrorCategoryValidation).
			WithDataset(job.Dataset).
			WithRow(finding.RowKey).
			WithColumn(finding.Column, finding.Value)
		w.errorHandler.RecordError(record)
	}

	// Clean
	cleaned, log, err := w.cleaner.Apply(ctx, w.runID, t, w.schema)
	if err != nil {
		record := NewErrorRecord(err, w.errorHandler.CategorizeError(err)).WithDataset(job.Dataset)
		w.errorHandler.RecordError(record)
		result.AddError(record)
		result.Complete(false)
		return *result
	}
	result.CleaningLog = log
	for _, summary := range log {
		result.CleaningOps += len(summary.Operations)
	}
	result.RowsRemoved = t.RowCount() - cleaned.RowCount()

	// Re-validate to show what the cleaning resolved
	result.PostFindings = w.rules.Evaluate(cleaned, w.schema)

	// Write, with the same retry policy as the read
	outputPath := filepath.Join(w.outputDir, job.Dataset+"_clean.csv")
	for {
		err := cleaned.WriteFile(outputPath, w.delimiter)
		if err == nil {
			break
		}
		record := NewErrorRecord(err, ErrorCategoryIOLevel).
			WithDataset(job.Dataset).
			WithRetry(job.RetryCount)
		if w.errorHandler.HandleError(record) == ActionRetry && job.IsRetryable() {
			job = job.Retry()
			result.RetryCount = job.RetryCount
			continue
		}
		result.AddError(record)
		result.Complete(false)
		return *result
	}
	result.OutputPath = outputPath
	result.RowsWritten = cleaned.RowCount()

	// Verify the written output against the in-memory cleaned table
	report, err := w.verifier.Verify(outputPath, cleaned, w.schema)
	if err != nil {
		record := NewErrorRecord(err, ErrorCategoryIOLevel).WithDataset(job.Dataset)
		w.errorHandler.RecordError(record)
		result.AddError(record)
		result.Complete(false)
		return *result
	}
	result.Verified = report.Passed
	if !report.Passed {
		result.AddWarning(fmt.Sprintf("verification failed for %s", outputPath))
	}

	result.Complete(true)

	w.logger.Info("Dataset curated",
		zap.String("dataset", job.Dataset),
		zap.Int("rowsRead", result.RowsRead),
		zap.Int("rowsWritten", result.RowsWritten),
		zap.Int("rowsRemoved", result.RowsRemoved),
		zap.Int("findings", len(result.PreFindings)),
		zap.Int("remainingFindings", len(result.PostFindings)),
		zap.Int("cleaningOps", result.CleaningOps),
		zap.Bool("verified", result.Verified),
		zap.Duration("duration", result.Duration))

	return *result
}
