package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionRetry indicates the operation should be retried
	ActionRetry
	// ActionSkipDataset indicates the current dataset should be skipped
	ActionSkipDataset
	// ActionAbort indicates the entire run should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during curation
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryDataConversion
	ErrorCategoryValidation
	ErrorCategoryRowLevel
	ErrorCategoryDatasetLevel
	ErrorCategoryIOLevel
	ErrorCategorySystemLevel
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryDataConversion:
		return "DataConversion"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryRowLevel:
		return "RowLevel"
	case ErrorCategoryDatasetLevel:
		return "DatasetLevel"
	case ErrorCategoryIOLevel:
		return "IOLevel"
	case ErrorCategorySystemLevel:
		return "SystemLevel"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during curation
type ErrorRecord struct {
	Category    ErrorCategory
	Dataset     string
	RowKey      string
	Column      string
	SourceValue interface{}
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
	RetryCount  int
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategoryDatasetLevel,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithDataset adds dataset information to the error record
func (r ErrorRecord) WithDataset(dataset string) ErrorRecord {
	r.Dataset = dataset
	return r
}

// WithRow adds row information to the error record
func (r ErrorRecord) WithRow(rowKey string) ErrorRecord {
	r.RowKey = rowKey
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(column string, sourceValue interface{}) ErrorRecord {
	r.Column = column
	r.SourceValue = sourceValue
	return r
}

// WithRetry adds the retry count to the error record
func (r ErrorRecord) WithRetry(retryCount int) ErrorRecord {
	r.RetryCount = retryCount
	return r
}

// String renders the record for reports
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", r.Category))
	if r.Dataset != "" {
		sb.WriteString(" dataset=" + r.Dataset)
	}
	if r.RowKey != "" {
		sb.WriteString(" row=" + r.RowKey)
	}
	if r.Column != "" {
		sb.WriteString(" column=" + r.Column)
	}
	sb.WriteString(": " + r.Message)
	return sb.String()
}

// ErrorHandler manages error handling during a curation run
type ErrorHandler struct {
	logger          *zap.Logger
	errorThresholds map[ErrorCategory]int
	errorCounts     map[ErrorCategory]int
	sampleErrors    map[ErrorCategory][]ErrorRecord
	datasetErrors   map[string]int
	mu              sync.Mutex
	maxSamples      int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	// Default error thresholds by category
	defaultThresholds := map[ErrorCategory]int{
		ErrorCategoryWarning:        1000, // Many warnings are acceptable
		ErrorCategoryDataConversion: 500,  // Quite a few conversion errors acceptable
		ErrorCategoryValidation:     200,  // Findings are informational, not fatal
		ErrorCategoryRowLevel:       50,
		ErrorCategoryDatasetLevel:   5,
		ErrorCategoryIOLevel:        3,
		ErrorCategorySystemLevel:    1,
		ErrorCategoryCritical:       0, // No critical errors acceptable
	}

	thresholds := make(map[ErrorCategory]int)
	for category, threshold := range defaultThresholds {
		thresholds[category] = threshold
	}

	return &ErrorHandler{
		logger:          logger,
		errorThresholds: thresholds,
		errorCounts:     make(map[ErrorCategory]int),
		sampleErrors:    make(map[ErrorCategory][]ErrorRecord),
		datasetErrors:   make(map[string]int),
		maxSamples:      5, // Store up to 5 sample errors per category
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var category ErrorCategory
	msg := err.Error()

	switch {
	case strings.Contains(msg, "convert") ||
		strings.Contains(msg, "parse"):
		category = ErrorCategoryDataConversion

	case strings.Contains(msg, "validate") ||
		strings.Contains(msg, "invalid"):
		category = ErrorCategoryValidation

	case strings.Contains(msg, "no such file") ||
		strings.Contains(msg, "open") ||
		strings.Contains(msg, "read") ||
		strings.Contains(msg, "write"):
		category = ErrorCategoryIOLevel

	case strings.Contains(msg, "permission") ||
		strings.Contains(msg, "disk") ||
		strings.Contains(msg, "memory"):
		category = ErrorCategorySystemLevel

	case strings.Contains(msg, "fatal") ||
		strings.Contains(msg, "panic"):
		category = ErrorCategoryCritical

	default:
		category = ErrorCategoryDatasetLevel
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", msg),
			zap.String("category", category.String()))
	}

	return category
}

// HandleError processes an error and determines the follow-up action
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue

	case ErrorCategoryDataConversion, ErrorCategoryValidation, ErrorCategoryRowLevel:
		return ActionContinue // data-quality findings never stop a run

	case ErrorCategoryDatasetLevel:
		return ActionSkipDataset

	case ErrorCategoryIOLevel:
		if record.RetryCount < 2 {
			if eh.logger != nil {
				eh.logger.Warn("Retrying after I/O error",
					zap.String("dataset", record.Dataset),
					zap.Int("retry", record.RetryCount+1),
					zap.String("error", record.Message))
			}
			return ActionRetry
		}
		return ActionSkipDataset

	case ErrorCategorySystemLevel, ErrorCategoryCritical:
		if eh.logger != nil {
			eh.logger.Error("Critical error during curation",
				zap.String("category", record.Category.String()),
				zap.String("error", record.Message))
		}
		return ActionAbort

	default:
		return ActionContinue
	}
}

// RecordError registers an error in the counters and sample store
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	if record.Dataset != "" {
		eh.datasetErrors[record.Dataset]++
	}

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}
}

// ShouldAbortRun determines if errors warrant aborting the whole run
func (eh *ErrorHandler) ShouldAbortRun() bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	if eh.errorCounts[ErrorCategoryCritical] > 0 {
		if eh.logger != nil {
			eh.logger.Error("Aborting run due to critical errors",
				zap.Int("criticalErrors", eh.errorCounts[ErrorCategoryCritical]))
		}
		return true
	}

	if eh.errorCounts[ErrorCategorySystemLevel] >= eh.errorThresholds[ErrorCategorySystemLevel] {
		if eh.logger != nil {
			eh.logger.Error("Aborting run due to system error threshold",
				zap.Int("errorCount", eh.errorCounts[ErrorCategorySystemLevel]),
				zap.Int("threshold", eh.errorThresholds[ErrorCategorySystemLevel]))
		}
		return true
	}

	return false
}

// ShouldSkipDataset determines if a dataset accumulated too many errors
func (eh *ErrorHandler) ShouldSkipDataset(dataset string) bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	count, exists := eh.datasetErrors[dataset]
	if !exists {
		return false
	}

	if count >= eh.errorThresholds[ErrorCategoryDatasetLevel] {
		if eh.logger != nil {
			eh.logger.Warn("Skipping dataset due to error threshold",
				zap.String("dataset", dataset),
				zap.Int("errorCount", count),
				zap.Int("threshold", eh.errorThresholds[ErrorCategoryDatasetLevel]))
		}
		return true
	}

	return false
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns up to maxSamples stored errors per category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		copied := make([]ErrorRecord, len(records))
		copy(copied, records)
		samples[category] = copied
	}
	return samples
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
