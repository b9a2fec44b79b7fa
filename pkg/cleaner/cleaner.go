// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

// Transform is a pure corrective step: table in, new table plus the audit
// operations describing what changed. Transforms never mutate their input
// and are applied sequentially; order matters (deduplication after value
// correction, never before).
type Transform struct {
	Name  string
	Apply func(t *table.Table, schema *model.Schema) (*table.Table, []model.CleaningOperation, error)
}

// Recorder persists cleaning operations for audit
type Recorder interface {
	Record(ctx context.Context, runID string, operations []model.CleaningOperation) error
}

// Cleaner applies an ordered list of corrective transforms and keeps the
// cleaning log
type Cleaner struct {
	transforms []Transform
	recorder   Recorder
	logger     *zap.Logger
}

// NewCleaner creates a new Cleaner instance. The recorder may be nil, in
// which case the cleaning log is only returned to the caller.
func NewCleaner(logger *zap.Logger, recorder Recorder, transforms ...Transform) (*Cleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Cleaner{
		transforms: transforms,
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Add appends transforms to the end of the sequence
func (c *Cleaner) Add(transforms ...Transform) *Cleaner {
	c.transforms = append(c.transforms, transforms...)
	return c
}

// Apply runs every transform in order against the table and returns the
// cleaned table plus the ordered cleaning log. The input table is left
// untouched.
func (c *Cleaner) Apply(ctx context.Context, runID string, t *table.Table, schema *model.Schema) (*table.Table, []model.TransformSummary, error) {
	if t == nil {
		return nil, nil, errors.New("table cannot be nil")
	}
	if schema == nil {
		return nil, nil, errors.New("schema cannot be nil")
	}

	current := t.Clone()
	log := make([]model.TransformSummary, 0, len(c.transforms))
	var allOperations []model.CleaningOperation

	for _, transform := range c.transforms {
		cleaned, operations, err := transform.Apply(current, schema)
		if err != nil {
			return nil, log, fmt.Errorf("transform %s failed: %w", transform.Name, err)
		}

		affected := affectedRowCount(operations)
		log = append(log, model.TransformSummary{
			Name:         transform.Name,
			RowsAffected: affected,
			Operations:   operations,
		})
		allOperations = append(allOperations, operations...)

		c.logger.Info("Applied transform",
			zap.String("dataset", t.Name),
			zap.String("transform", transform.Name),
			zap.Int("rowsAffected", affected),
			zap.Int("rowsRemaining", cleaned.RowCount()))

		current = cleaned
	}

	if c.recorder != nil && len(allOperations) > 0 {
		if err := c.recorder.Record(ctx, runID, allOperations); err != nil {
			return current, log, fmt.Errorf("failed to record cleaning operations: %w", err)
		}
	}

	return current, log, nil
}

// affectedRowCount counts distinct row keys among operations. Row removals
// carry their own key, so dedup counts dropped rows, not survivors.
func affectedRowCount(operations []model.CleaningOperation) int {
	keys := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		keys[op.RowKey] = struct{}{}
	}
	return len(keys)
}
