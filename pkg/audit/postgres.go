// pkg/audit/postgres.go
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
)

// PostgresRecorder persists cleaning operations into a cleaning_log table
// so curation runs stay auditable across sessions
type PostgresRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresRecorder connects to the audit database and ensures the
// tracking table exists
func NewPostgresRecorder(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresRecorder, error) {
	if dsn == "" {
		return nil, errors.New("audit DSN cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	recorder := &PostgresRecorder{
		db:     db,
		logger: logger,
	}

	if err := recorder.setupCleaningTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}

	return recorder, nil
}

// setupCleaningTable ensures the cleaning_log tracking table exists
func (r *PostgresRecorder) setupCleaningTable(ctx context.Context) error {
	execCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS cleaning_log (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_key TEXT NOT NULL,
			operation TEXT NOT NULL,
			reason TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(execCtx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured cleaning_log table exists")
	return nil
}

// Record batch inserts cleaning operations inside a transaction
func (r *PostgresRecorder) Record(ctx context.Context, runID string, operations []model.CleaningOperation) error {
	if len(operations) == 0 {
		return nil
	}

	execCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(execCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PrepareContext(execCtx, `
		INSERT INTO cleaning_log
		(run_id, dataset, column_name, original_value, new_value,
		 row_key, operation, reason, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		_, err = stmt.ExecContext(execCtx,
			runID,
			op.Dataset,
			op.Column,
			model.NullableString(op.OriginalValue),
			op.NewValue,
			op.RowKey,
			op.Operation,
			op.Reason,
			op.AppliedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations",
		zap.String("runID", runID),
		zap.Int("count", len(operations)))
	return nil
}

// RunOperations returns the operations recorded for a run, in insert order
func (r *PostgresRecorder) RunOperations(ctx context.Context, runID string) ([]model.CleaningOperation, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := r.db.QueryxContext(queryCtx, `
		SELECT dataset, column_name, original_value, new_value,
		       row_key, operation, reason, applied_at
		FROM cleaning_log
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cleaning log: %w", err)
	}
	defer rows.Close()

	var operations []model.CleaningOperation
	for rows.Next() {
		var (
			op       model.CleaningOperation
			original *string
		)
		if err := rows.Scan(&op.Dataset, &op.Column, &original, &op.NewValue,
			&op.RowKey, &op.Operation, &op.Reason, &op.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cleaning operation: %w", err)
		}
		if original != nil {
			op.OriginalValue = *original
		}
		operations = append(operations, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cleaning log: %w", err)
	}

	return operations, nil
}

// Close releases the database connection
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
