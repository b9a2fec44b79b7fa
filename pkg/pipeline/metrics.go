package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunMetrics collects per-run curation metrics
type RunMetrics struct {
	logger           *zap.Logger
	mu               sync.Mutex
	startTime        time.Time
	endTime          time.Time
	datasetDurations map[string]time.Duration
	rowsRead         int
	rowsWritten      int
	rowsRemoved      int
	findings         int
	cleaningOps      int
	successCount     int
	failureCount     int
	errorCounts      map[ErrorCategory]int
	workerBusy       map[int]time.Duration
}

// NewRunMetrics creates a metrics collector
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:           logger,
		startTime:        time.Now(),
		datasetDurations: make(map[string]time.Duration),
		errorCounts:      make(map[ErrorCategory]int),
		workerBusy:       make(map[int]time.Duration),
	}
}

// RecordDataset incorporates a dataset result into the metrics
func (m *RunMetrics) RecordDataset(result DatasetResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.datasetDurations[result.Dataset] = result.Duration
	m.rowsRead += result.RowsRead
	m.findings += len(result.PreFindings)
	m.cleaningOps += result.CleaningOps
	m.workerBusy[result.WorkerID] += result.Duration

	if result.Success {
		m.successCount++
		m.rowsWritten += result.RowsWritten
		m.rowsRemoved += result.RowsRemoved
	} else {
		m.failureCount++
	}

	for _, rec := range result.Errors {
		m.errorCounts[rec.Category]++
	}
}

// RecordError registers an error outside any dataset result
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[category]++
}

// Complete marks the run as finished
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTime = time.Now()

	if m.logger != nil {
		m.logger.Info("Run metrics finalized",
			zap.Int("datasets", len(m.datasetDurations)),
			zap.Int("rowsRead", m.rowsRead),
			zap.Int("rowsWritten", m.rowsWritten),
			zap.Int("findings", m.findings),
			zap.Int("cleaningOps", m.cleaningOps),
			zap.Duration("duration", m.endTime.Sub(m.startTime)))
	}
}

// Duration returns the elapsed run time
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.endTime.IsZero() {
		return time.Since(m.startTime)
	}
	return m.endTime.Sub(m.startTime)
}

// Throughput returns rows read per second
func (m *RunMetrics) Throughput() float64 {
	duration := m.Duration()

	m.mu.Lock()
	defer m.mu.Unlock()

	if duration.Seconds() == 0 {
		return 0
	}
	return float64(m.rowsRead) / duration.Seconds()
}

// GenerateReport produces a human-readable metrics report
func (m *RunMetrics) GenerateReport() string {
	duration := m.Duration()
	throughput := m.Throughput()

	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("=== Curation Run Report ===\n")
	sb.WriteString(fmt.Sprintf("Duration:        %s\n", formatDuration(duration)))
	sb.WriteString(fmt.Sprintf("Throughput:      %.0f rows/s\n", throughput))
	sb.WriteString(fmt.Sprintf("Datasets:        %d (%d ok, %d failed)\n",
		len(m.datasetDurations), m.successCount, m.failureCount))
	sb.WriteString(fmt.Sprintf("Rows read:       %d\n", m.rowsRead))
	sb.WriteString(fmt.Sprintf("Rows written:    %d\n", m.rowsWritten))
	sb.WriteString(fmt.Sprintf("Rows removed:    %d\n", m.rowsRemoved))
	sb.WriteString(fmt.Sprintf("Findings:        %d\n", m.findings))
	sb.WriteString(fmt.Sprintf("Cleaning ops:    %d\n", m.cleaningOps))

	if len(m.errorCounts) > 0 {
		sb.WriteString("Errors by category:\n")
		categories := make([]ErrorCategory, 0, len(m.errorCounts))
		for category := range m.errorCounts {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, category := range categories {
			sb.WriteString(fmt.Sprintf("  %-16s %d\n", category.String()+":", m.errorCounts[category]))
		}
	}

	if len(m.datasetDurations) > 0 {
		sb.WriteString("Per-dataset durations:\n")
		datasets := make([]string, 0, len(m.datasetDurations))
		for dataset := range m.datasetDurations {
			datasets = append(datasets, dataset)
		}
		sort.Strings(datasets)
		for _, dataset := range datasets {
			sb.WriteString(fmt.Sprintf("  %-24s %s\n", dataset+":", formatDuration(m.datasetDurations[dataset])))
		}
	}

	return sb.String()
}

// formatDuration renders a duration with sensible precision
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
