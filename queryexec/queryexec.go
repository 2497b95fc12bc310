// Package queryexec runs read-only SQL against the analytics database and
// normalizes result sets into the engine's tabular shape.
package queryexec

import (
	"context"
	"database/sql"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// DefaultMaxRows bounds one result set. Commands are interactive; anything
// past this is a reporting job, not a hot command.
const DefaultMaxRows = 1000

// Executor implements the router's QueryExecutor over a *sql.DB.
type Executor struct {
	db      *sql.DB
	maxRows int
}

// New creates an Executor. maxRows <= 0 uses DefaultMaxRows.
func New(db *sql.DB, maxRows int) *Executor {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Executor{db: db, maxRows: maxRows}
}

// Query executes sqlText and scans up to maxRows rows into the normalized
// shape. The context bounds the whole scan, not just statement submission.
func (e *Executor) Query(ctx context.Context, sqlText string) (*types.Rows, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(types.ErrQueryExecution, "execute query"), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(types.ErrQueryExecution, "read columns"), err)
	}

	out := &types.Rows{Columns: columns}
	for rows.Next() {
		if len(out.Values) >= e.maxRows {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.WithSecondaryError(errors.Wrap(types.ErrQueryExecution, "scan row"), err)
		}
		for i, v := range raw {
			// Drivers hand back []byte for TEXT columns; keep strings
			if b, ok := v.([]byte); ok {
				raw[i] = string(b)
			}
		}
		out.Values = append(out.Values, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(types.ErrQueryExecution, "iterate rows"), err)
	}
	return out, nil
}
