// pkg/audit/memory.go
package audit

import (
	"context"
	"sync"

	"github.com/ecotraits/curate/pkg/model"
)

// MemoryRecorder keeps cleaning operations in memory. Used when no audit
// database is configured and in tests.
type MemoryRecorder struct {
	mu         sync.Mutex
	operations []model.CleaningOperation
	runs       map[string]int
}

// NewMemoryRecorder creates an in-memory recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		runs: make(map[string]int),
	}
}

// Record appends operations to the in-memory log
func (r *MemoryRecorder) Record(ctx context.Context, runID string, operations []model.CleaningOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.operations = append(r.operations, operations...)
	r.runs[runID] += len(operations)
	return nil
}

// Operations returns a copy of all recorded operations in order
func (r *MemoryRecorder) Operations() []model.CleaningOperation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.CleaningOperation, len(r.operations))
	copy(out, r.operations)
	return out
}

// RunCount returns the number of operations recorded for a run
func (r *MemoryRecorder) RunCount(runID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[runID]
}
