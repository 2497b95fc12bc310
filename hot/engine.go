// Package hot is the command template engine facade. It wires the registry,
// definition cache, parameter validator, renderer, execution router, and
// audit recorder into one entry point for registering and invoking named
// command templates.
package hot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/audit"
	"github.com/vandanapadala-pg/hotcommands/hot/cache"
	"github.com/vandanapadala-pg/hotcommands/hot/registry"
	"github.com/vandanapadala-pg/hotcommands/hot/render"
	"github.com/vandanapadala-pg/hotcommands/hot/router"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/hot/validate"
)

// Config tunes engine behavior. Zero values select defaults.
type Config struct {
	// InvocationTimeout bounds one end-to-end command execution.
	InvocationTimeout time.Duration
	// CacheTTL bounds how long resolved definitions are served from cache.
	CacheTTL time.Duration
	// AuditBufferSize is the async audit queue depth.
	AuditBufferSize int
}

// DefaultConfig returns the defaults used when fields are zero.
func DefaultConfig() Config {
	return Config{
		InvocationTimeout: 30 * time.Second,
		CacheTTL:          cache.DefaultTTL,
		AuditBufferSize:   256,
	}
}

// Engine is the command template engine. Create one per database; all
// methods are safe for concurrent use. Close must be called to drain the
// audit queue.
type Engine struct {
	registry *registry.Registry
	cache    *cache.Cache
	router   *router.Router
	audit    *audit.Store
	recorder *audit.Recorder
	logger   *zap.SugaredLogger
	cfg      Config
}

// New assembles an engine over db and the given execution router. The cache
// is registered as the registry's invalidation hook, so mutations are
// visible to subsequent invocations before the mutating call returns.
func New(db *sql.DB, rt *router.Router, logger *zap.SugaredLogger, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.InvocationTimeout <= 0 {
		cfg.InvocationTimeout = def.InvocationTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.AuditBufferSize <= 0 {
		cfg.AuditBufferSize = def.AuditBufferSize
	}

	defCache := cache.New(cfg.CacheTTL)
	auditStore := audit.NewStore(db)
	return &Engine{
		registry: registry.New(db, defCache, logger),
		cache:    defCache,
		router:   rt,
		audit:    auditStore,
		recorder: audit.NewRecorder(auditStore, logger, cfg.AuditBufferSize),
		logger:   logger,
		cfg:      cfg,
	}
}

// Close drains and stops the audit recorder.
func (e *Engine) Close() {
	e.recorder.Close()
}

// Reconfigure applies runtime-tunable settings without restarting: the
// definition cache TTL and the SQL statement denylist. Long-lived embedders
// hook this up to a config watcher; one-shot CLI invocations never need it.
func (e *Engine) Reconfigure(cacheTTL time.Duration, denylist []string) {
	if cacheTTL > 0 {
		e.cache.SetTTL(cacheTTL)
		e.cfg.CacheTTL = cacheTTL
	}
	e.router.SetDenylist(denylist)
}

// RegisterCommand creates a new command definition owned by the caller.
func (e *Engine) RegisterCommand(ctx context.Context, sctx types.SecurityContext, def *types.CommandDefinition) (*types.CommandDefinition, error) {
	if def.Owner == "" {
		def = def.Clone()
		def.Owner = sctx.UserID
	}
	return e.registry.Create(ctx, sctx, def)
}

// GetCommand returns the active definition for (owner, name), subject to
// sharing visibility.
func (e *Engine) GetCommand(ctx context.Context, sctx types.SecurityContext, owner, name string) (*types.CommandDefinition, error) {
	return e.registry.Get(ctx, sctx, owner, name)
}

// ListCommands returns the caller's commands matching the filter.
func (e *Engine) ListCommands(ctx context.Context, sctx types.SecurityContext, filter types.ListFilter) ([]*types.CommandDefinition, error) {
	return e.registry.List(ctx, sctx, filter)
}

// UpdateCommand applies a patch to the caller's command, bumping its version.
func (e *Engine) UpdateCommand(ctx context.Context, sctx types.SecurityContext, owner, name string, patch types.UpdatePatch) (*types.CommandDefinition, error) {
	return e.registry.Update(ctx, sctx, owner, name, patch)
}

// DeleteCommand soft-deletes the caller's command, freeing its name.
func (e *Engine) DeleteCommand(ctx context.Context, sctx types.SecurityContext, owner, name string) error {
	return e.registry.SoftDelete(ctx, sctx, owner, name)
}

// PurgeCommand permanently removes a soft-deleted command and its history.
func (e *Engine) PurgeCommand(ctx context.Context, sctx types.SecurityContext, owner, name string) error {
	return e.registry.Purge(ctx, sctx, owner, name)
}

// CommandVersions lists a command's immutable snapshots, newest first.
func (e *Engine) CommandVersions(ctx context.Context, sctx types.SecurityContext, owner, name string) ([]*types.CommandVersion, error) {
	return e.registry.ListVersions(ctx, sctx, owner, name)
}

// CommandVersion returns one historical snapshot of a command.
func (e *Engine) CommandVersion(ctx context.Context, sctx types.SecurityContext, owner, name string, version int) (*types.CommandVersion, error) {
	return e.registry.GetVersion(ctx, sctx, owner, name, version)
}

// History returns a command's recent executions, newest first.
func (e *Engine) History(ctx context.Context, sctx types.SecurityContext, owner, name string, limit int) ([]*types.ExecutionRecord, error) {
	def, err := e.registry.Get(ctx, sctx, owner, name)
	if err != nil {
		return nil, err
	}
	return e.audit.History(ctx, def.ID, limit)
}

// InvokerHistory returns the caller's recent executions across all commands,
// newest first.
func (e *Engine) InvokerHistory(ctx context.Context, sctx types.SecurityContext, limit int) ([]*types.ExecutionRecord, error) {
	return e.audit.HistoryByInvoker(ctx, sctx.UserID, limit)
}

// Invoke executes the named command with the supplied parameter values.
// The pipeline is resolve, validate, render, route; every invocation is
// recorded asynchronously whether it succeeded or not.
func (e *Engine) Invoke(ctx context.Context, sctx types.SecurityContext, owner, name string, supplied map[string]interface{}) (*types.ExecutionResult, error) {
	started := time.Now()

	def, err := e.resolve(ctx, sctx, owner, name)
	if err != nil {
		return nil, err
	}

	result, err := e.execute(ctx, def, supplied)
	e.record(def, sctx, supplied, started, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolve returns the definition from cache when fresh, falling back to the
// registry and repopulating the cache. Visibility is re-checked on the cache
// path because cached entries are not caller-scoped.
func (e *Engine) resolve(ctx context.Context, sctx types.SecurityContext, owner, name string) (*types.CommandDefinition, error) {
	if def := e.cache.Get(owner, name); def != nil {
		if sctx.UserID != owner && !def.Shared {
			return nil, errors.Wrapf(types.ErrCommandNotFound, "%s/%s", owner, name)
		}
		return def, nil
	}

	def, err := e.registry.Get(ctx, sctx, owner, name)
	if err != nil {
		return nil, err
	}
	e.cache.Put(def)
	return def, nil
}

func (e *Engine) execute(ctx context.Context, def *types.CommandDefinition, supplied map[string]interface{}) (*types.ExecutionResult, error) {
	validated, err := validate.Validate(def.Parameters, supplied)
	if err != nil {
		return nil, err
	}

	var payload router.Payload
	switch def.Kind {
	case types.KindToolCall:
		payload.Tool, payload.Text = splitToolTemplate(def.TemplateText)
		args, err := render.Args(payload.Text, validated)
		if err != nil {
			return nil, err
		}
		payload.Args = args
	default:
		text, err := render.Render(def.TemplateText, def.Kind, validated)
		if err != nil {
			return nil, err
		}
		payload.Text = text
	}

	return e.router.Execute(ctx, def, payload, e.cfg.InvocationTimeout)
}

// record enqueues the audit entry for one invocation. Parameter values are
// stored in canonical string form; result payloads are summarized, never
// persisted.
func (e *Engine) record(def *types.CommandDefinition, sctx types.SecurityContext, supplied map[string]interface{}, started time.Time, result *types.ExecutionResult, err error) {
	rec := &types.ExecutionRecord{
		ID:             uuid.NewString(),
		CommandID:      def.ID,
		Invoker:        sctx.UserID,
		SuppliedParams: stringifyParams(supplied),
		StartedAt:      started.UTC(),
		DurationMs:     time.Since(started).Milliseconds(),
		Success:        err == nil,
	}
	if err != nil {
		rec.ErrorKind = string(types.KindOf(err))
	} else {
		rec.ResultSummary = summarize(result)
	}
	e.recorder.Record(rec)
}

// splitToolTemplate separates a tool-call template into the tool name (its
// first whitespace-delimited token) and the argument template that follows.
func splitToolTemplate(templateText string) (tool, rest string) {
	trimmed := strings.TrimSpace(templateText)
	if i := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }); i >= 0 {
		return trimmed[:i], strings.TrimSpace(trimmed[i:])
	}
	return trimmed, ""
}

func stringifyParams(supplied map[string]interface{}) map[string]string {
	out := make(map[string]string, len(supplied))
	for name, raw := range supplied {
		out[name] = fmt.Sprintf("%v", raw)
	}
	return out
}

func summarize(result *types.ExecutionResult) string {
	if result == nil {
		return ""
	}
	switch result.Kind {
	case types.ResultScalar:
		return "scalar"
	case types.ResultText:
		return fmt.Sprintf("text (%d chars)", len(result.Text))
	default:
		if result.Rows == nil {
			return "0 rows"
		}
		return fmt.Sprintf("%d rows", len(result.Rows.Values))
	}
}
