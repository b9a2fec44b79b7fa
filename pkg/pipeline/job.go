package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/validate"
)

// DatasetJob represents one input file to curate
type DatasetJob struct {
	ID         string    // Unique job identifier
	Path       string    // Input file path
	Dataset    string    // Dataset name (derived from the file name)
	Priority   int       // Job priority (higher = more important)
	CreatedAt  time.Time // Job creation timestamp
	RetryCount int       // Number of retries attempted
	MaxRetries int       // Maximum allowed retries
}

// NewDatasetJob creates a new dataset job with defaults
func NewDatasetJob(path, dataset string) DatasetJob {
	return DatasetJob{
		ID:         uuid.New().String(),
		Path:       path,
		Dataset:    dataset,
		Priority:   1,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 2,
	}
}

// WithPriority sets the job priority and returns the modified job
func (j DatasetJob) WithPriority(priority int) DatasetJob {
	j.Priority = priority
	return j
}

// IsRetryable checks if the job can be retried
func (j DatasetJob) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry increments the retry count and returns the modified job
func (j DatasetJob) Retry() DatasetJob {
	j.RetryCount++
	return j
}

// DatasetResult represents the outcome of curating one dataset
type DatasetResult struct {
	JobID            string
	Dataset          string
	Path             string
	OutputPath       string
	Success          bool
	RowsRead         int
	RowsWritten      int
	RowsRemoved      int
	PreFindings      []validate.Finding // findings before cleaning
	PostFindings     []validate.Finding // findings remaining after cleaning
	CleaningLog      []model.TransformSummary
	CleaningOps      int
	Verified         bool
	Errors           []ErrorRecord
	Warnings         []string
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	RetryCount       int
	WorkerID         int
}

// NewDatasetResult initializes a result for a job
func NewDatasetResult(job DatasetJob, workerID int) *DatasetResult {
	return &DatasetResult{
		JobID:      job.ID,
		Dataset:    job.Dataset,
		Path:       job.Path,
		StartTime:  time.Now(),
		RetryCount: job.RetryCount,
		WorkerID:   workerID,
		Errors:     make([]ErrorRecord, 0),
		Warnings:   make([]string, 0),
	}
}

// Complete marks the result as done and calculates duration
func (r *DatasetResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddError adds an error to the result
func (r *DatasetResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
}

// AddWarning adds a warning to the result
func (r *DatasetResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// HasErrors checks if any errors occurred
func (r *DatasetResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary represents the final curation run summary
type RunSummary struct {
	RunID              string
	Datasets           []string
	SuccessfulDatasets int
	FailedDatasets     map[string]error
	TotalRowsRead      int
	TotalRowsWritten   int
	TotalRowsRemoved   int
	TotalFindings      int
	TotalCleaningOps   int
	ErrorCategories    map[ErrorCategory]int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
	Throughput         float64 // rows/second
}

// NewRunSummary initializes a run summary
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:           runID,
		Datasets:        make([]string, 0),
		FailedDatasets:  make(map[string]error),
		ErrorCategories: make(map[ErrorCategory]int),
		StartTime:       time.Now(),
	}
}

// AddResult incorporates a dataset result into the summary
func (s *RunSummary) AddResult(result DatasetResult) {
	s.Datasets = append(s.Datasets, result.Dataset)
	s.TotalRowsRead += result.RowsRead
	s.TotalFindings += len(result.PreFindings)
	s.TotalCleaningOps += result.CleaningOps

	if result.Success {
		s.SuccessfulDatasets++
		s.TotalRowsWritten += result.RowsWritten
		s.TotalRowsRemoved += result.RowsRemoved
	} else {
		if len(result.Errors) > 0 {
			s.FailedDatasets[result.Dataset] = fmt.Errorf("%s", result.Errors[0].Message)
		} else {
			s.FailedDatasets[result.Dataset] = fmt.Errorf("unknown error")
		}
	}

	for _, rec := range result.Errors {
		s.ErrorCategories[rec.Category]++
	}
}

// Complete marks the run as complete and calculates throughput
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	if s.Duration.Seconds() > 0 {
		s.Throughput = float64(s.TotalRowsRead) / s.Duration.Seconds()
	}
}

// SuccessRate returns the percentage of datasets curated successfully
func (s *RunSummary) SuccessRate() float64 {
	total := len(s.Datasets)
	if total == 0 {
		return 0
	}
	return float64(s.SuccessfulDatasets) / float64(total) * 100
}
