// Package router dispatches rendered command payloads to one of three
// backends (NL→SQL translation, direct SQL execution, or tool invocation)
// and normalizes heterogeneous backend outputs into one result shape.
package router

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Config tunes router behavior.
type Config struct {
	// Denylist of statement keywords; empty means DefaultDenylist.
	Denylist []string
	// MaxToolRetries bounds retries after a transient tool failure.
	MaxToolRetries int
	// ToolRetryBackoff is the initial backoff, doubled per attempt.
	ToolRetryBackoff time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxToolRetries:   2,
		ToolRetryBackoff: 250 * time.Millisecond,
	}
}

// Router selects the execution route by command kind. The three routes are a
// closed set; adding a kind means extending the switch, which keeps dispatch
// exhaustive and statically checkable.
type Router struct {
	translator Translator
	executor   QueryExecutor
	tools      ToolTransport
	cfg        Config
	logger     *zap.SugaredLogger

	mu       sync.RWMutex
	denylist []string
}

// New creates a Router. Any backend may be nil when the deployment does not
// support that route; invoking a command of that kind then fails cleanly.
func New(translator Translator, executor QueryExecutor, tools ToolTransport, cfg Config, logger *zap.SugaredLogger) *Router {
	if cfg.MaxToolRetries < 0 {
		cfg.MaxToolRetries = 0
	}
	if cfg.ToolRetryBackoff <= 0 {
		cfg.ToolRetryBackoff = DefaultConfig().ToolRetryBackoff
	}
	return &Router{
		translator: translator,
		executor:   executor,
		tools:      tools,
		cfg:        cfg,
		logger:     logger,
		denylist:   cfg.Denylist,
	}
}

// SetDenylist replaces the statement denylist at runtime. Empty restores
// DefaultDenylist. Safe to call while invocations are in flight.
func (r *Router) SetDenylist(denylist []string) {
	r.mu.Lock()
	r.denylist = append([]string(nil), denylist...)
	r.mu.Unlock()
}

func (r *Router) currentDenylist() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.denylist
}

// Execute dispatches the payload along the route selected by kind, bounded
// by timeout. Exceeding the timeout cancels the underlying backend call and
// fails with an execution-timeout error. On success the backend output is
// normalized into an ExecutionResult tagged with its result kind.
func (r *Router) Execute(ctx context.Context, cmd *types.CommandDefinition, payload Payload, timeout time.Duration) (*types.ExecutionResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	var result *types.ExecutionResult
	var err error

	switch cmd.Kind {
	case types.KindNLQuery:
		result, err = r.executeNLQuery(ctx, cmd, payload.Text)
	case types.KindDirectQuery:
		result, err = r.executeDirectQuery(ctx, payload.Text)
	case types.KindToolCall:
		result, err = r.executeToolCall(ctx, payload.Tool, payload.Args)
	default:
		return nil, errors.Newf("unknown command kind %q", cmd.Kind)
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(types.ErrExecutionTimeout, "command %q exceeded %s", cmd.Name, timeout)
		}
		if kind := types.KindOf(err); kind == types.ErrKindUnsafeQuery || kind == types.ErrKindUnresolvedPlaceholder {
			// Elevated severity: a safety rejection means either an
			// injection attempt or an internal invariant violation
			if r.logger != nil {
				r.logger.Errorw("Safety check rejected invocation",
					"command", cmd.Name,
					"owner", cmd.Owner,
					"error_kind", string(kind),
					"error", err.Error(),
				)
			}
		}
		return nil, err
	}

	result.Success = true
	result.DurationMs = time.Since(started).Milliseconds()
	return result, nil
}

// executeNLQuery translates the rendered text to SQL, re-validates the
// translator's output, and executes it. Translator output is untrusted
// regardless of what produced it.
func (r *Router) executeNLQuery(ctx context.Context, cmd *types.CommandDefinition, text string) (*types.ExecutionResult, error) {
	if r.translator == nil {
		return nil, errors.Wrap(types.ErrTranslation, "no translator configured")
	}

	schemaContext := cmd.Domain
	sqlText, err := r.translator.Translate(ctx, text, schemaContext)
	if err != nil {
		if types.KindOf(err) == "" {
			err = errors.WithSecondaryError(errors.Wrap(types.ErrTranslation, "translate"), err)
		}
		return nil, err
	}

	if err := CheckSelectOnly(sqlText); err != nil {
		return nil, err
	}
	if err := CheckQuery(sqlText, r.currentDenylist()); err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.Debugw("Translated natural-language query",
			"command", cmd.Name,
			"query", sqlText,
		)
	}

	return r.runQuery(ctx, sqlText)
}

func (r *Router) executeDirectQuery(ctx context.Context, sqlText string) (*types.ExecutionResult, error) {
	if err := CheckQuery(sqlText, r.currentDenylist()); err != nil {
		return nil, err
	}
	return r.runQuery(ctx, sqlText)
}

func (r *Router) runQuery(ctx context.Context, sqlText string) (*types.ExecutionResult, error) {
	if r.executor == nil {
		return nil, errors.Wrap(types.ErrQueryExecution, "no query executor configured")
	}

	rows, err := r.executor.Query(ctx, sqlText)
	if err != nil {
		if types.KindOf(err) == "" {
			err = errors.WithSecondaryError(errors.Wrap(types.ErrQueryExecution, "execute query"), err)
		}
		return nil, err
	}

	return normalizeRows(rows), nil
}

// executeToolCall dispatches to the tool transport, retrying transient
// failures with doubling backoff. A tool rejecting the payload is never
// retried.
func (r *Router) executeToolCall(ctx context.Context, tool string, args map[string]interface{}) (*types.ExecutionResult, error) {
	if r.tools == nil {
		return nil, errors.Wrap(types.ErrToolUnavailable, "no tool transport configured")
	}

	backoff := r.cfg.ToolRetryBackoff
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxToolRetries; attempt++ {
		if attempt > 0 {
			if r.logger != nil {
				r.logger.Warnw("Retrying tool call",
					"tool", tool,
					"attempt", attempt,
					"error", lastErr.Error(),
				)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := r.tools.Invoke(ctx, tool, args)
		if err == nil {
			return &types.ExecutionResult{Kind: types.ResultText, Text: text}, nil
		}
		lastErr = err
		if !errors.Is(err, types.ErrToolUnavailable) {
			return nil, err
		}
	}
	return nil, lastErr
}

// normalizeRows collapses a single-cell result set to a scalar, otherwise
// keeps tabular shape.
func normalizeRows(rows *types.Rows) *types.ExecutionResult {
	if rows == nil {
		return &types.ExecutionResult{Kind: types.ResultRows, Rows: &types.Rows{}}
	}
	if len(rows.Columns) == 1 && len(rows.Values) == 1 && len(rows.Values[0]) == 1 {
		return &types.ExecutionResult{Kind: types.ResultScalar, Scalar: rows.Values[0][0], Rows: rows}
	}
	return &types.ExecutionResult{Kind: types.ResultRows, Rows: rows}
}
