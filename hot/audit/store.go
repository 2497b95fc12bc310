package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Store persists execution records and keeps per-command usage counters.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes one execution record and, for successful runs, bumps the
// command's usage counter and last-used timestamp in the same transaction.
func (s *Store) Insert(ctx context.Context, rec *types.ExecutionRecord) error {
	params, err := json.Marshal(rec.SuppliedParams)
	if err != nil {
		return errors.Wrap(err, "marshal supplied params")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin audit transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO executions (id, command_id, invoker, supplied_params, started_at, duration_ms, success, error_kind, result_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CommandID, rec.Invoker, string(params), rec.StartedAt.UTC(),
		rec.DurationMs, rec.Success, rec.ErrorKind, rec.ResultSummary,
	)
	if err != nil {
		return errors.Wrap(err, "insert execution record")
	}

	if rec.Success {
		_, err = tx.ExecContext(ctx, `
			UPDATE hot_commands
			SET usage_count = usage_count + 1, last_used_at = ?
			WHERE id = ?`,
			rec.StartedAt.UTC(), rec.CommandID,
		)
		if err != nil {
			return errors.Wrap(err, "update usage counter")
		}
	}

	return tx.Commit()
}

// History returns the most recent executions of a command, newest first.
// limit <= 0 defaults to 50.
func (s *Store) History(ctx context.Context, commandID string, limit int) ([]*types.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command_id, invoker, supplied_params, started_at, duration_ms, success, error_kind, result_summary
		FROM executions
		WHERE command_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		commandID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query execution history")
	}
	defer rows.Close()

	var records []*types.ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HistoryByInvoker returns a user's recent executions across all commands.
func (s *Store) HistoryByInvoker(ctx context.Context, invoker string, limit int) ([]*types.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command_id, invoker, supplied_params, started_at, duration_ms, success, error_kind, result_summary
		FROM executions
		WHERE invoker = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		invoker, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query execution history")
	}
	defer rows.Close()

	var records []*types.ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanExecution(rows *sql.Rows) (*types.ExecutionRecord, error) {
	var rec types.ExecutionRecord
	var paramsJSON string
	var startedAt time.Time
	if err := rows.Scan(
		&rec.ID, &rec.CommandID, &rec.Invoker, &paramsJSON,
		&startedAt, &rec.DurationMs, &rec.Success, &rec.ErrorKind, &rec.ResultSummary,
	); err != nil {
		return nil, errors.Wrap(err, "scan execution record")
	}
	rec.StartedAt = startedAt.UTC()
	if err := json.Unmarshal([]byte(paramsJSON), &rec.SuppliedParams); err != nil {
		return nil, errors.Wrap(err, "unmarshal supplied params")
	}
	return &rec, nil
}
