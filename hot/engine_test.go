package hot

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/router"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	hottest "github.com/vandanapadala-pg/hotcommands/internal/testing"
)

type stubTranslator struct {
	sqlText string
	err     error
	calls   int
}

func (s *stubTranslator) Translate(ctx context.Context, text, schemaContext string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.sqlText, nil
}

type stubExecutor struct {
	rows    *types.Rows
	err     error
	queries []string
}

func (s *stubExecutor) Query(ctx context.Context, sqlText string) (*types.Rows, error) {
	s.queries = append(s.queries, sqlText)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type stubTransport struct {
	text  string
	err   error
	tools []string
	args  []map[string]interface{}
}

func (s *stubTransport) Invoke(ctx context.Context, tool string, args map[string]interface{}) (string, error) {
	s.tools = append(s.tools, tool)
	s.args = append(s.args, args)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type engineFixture struct {
	engine     *Engine
	db         *sql.DB
	translator *stubTranslator
	executor   *stubExecutor
	transport  *stubTransport
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		db:         hottest.CreateTestDB(t),
		translator: &stubTranslator{sqlText: "SELECT region, total FROM cells"},
		executor: &stubExecutor{rows: &types.Rows{
			Columns: []string{"region", "total"},
			Values:  [][]interface{}{{"north", int64(12)}, {"south", int64(7)}},
		}},
		transport: &stubTransport{text: "ok"},
	}
	rt := router.New(f.translator, f.executor, f.transport, router.DefaultConfig(), nil)
	f.engine = New(f.db, rt, nil, Config{InvocationTimeout: 5 * time.Second})
	t.Cleanup(f.engine.Close)
	return f
}

func alice() types.SecurityContext {
	return types.SecurityContext{UserID: "alice"}
}

func registerSample(t *testing.T, f *engineFixture, kind types.CommandKind, template string) *types.CommandDefinition {
	t.Helper()
	def, err := f.engine.RegisterCommand(context.Background(), alice(), &types.CommandDefinition{
		Name:         "top_cells",
		TemplateText: template,
		Kind:         kind,
	})
	require.NoError(t, err)
	return def
}

func TestInvokeDirectQuery(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery,
		"SELECT * FROM cells WHERE region = {{region:string:required}} LIMIT {{limit:integer:default=10}}")

	result, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells",
		map[string]interface{}{"region": "north"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, types.ResultRows, result.Kind)

	// Rendered SQL carries the quoted literal and the default
	require.Len(t, f.executor.queries, 1)
	assert.Equal(t, "SELECT * FROM cells WHERE region = 'north' LIMIT 10", f.executor.queries[0])
}

func TestInvokeNLQueryTranslates(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindNLQuery, "show top cells in {{region}}")

	result, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells",
		map[string]interface{}{"region": "north"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, f.translator.calls)
	require.Len(t, f.executor.queries, 1)
	assert.Equal(t, f.translator.sqlText, f.executor.queries[0])
}

func TestInvokeToolCall(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindToolCall, "cell_report {{region:string:required}} {{limit:integer:default=5}}")

	result, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells",
		map[string]interface{}{"region": "north"})
	require.NoError(t, err)
	assert.Equal(t, types.ResultText, result.Kind)
	assert.Equal(t, "ok", result.Text)

	require.Len(t, f.transport.tools, 1)
	assert.Equal(t, "cell_report", f.transport.tools[0])
	assert.Equal(t, map[string]interface{}{"region": "north", "limit": int64(5)}, f.transport.args[0])
}

func TestInvokeValidationFailureIsBatched(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery,
		"SELECT * FROM cells WHERE region = {{region:string:required}} AND n > {{threshold:integer:required}}")

	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells",
		map[string]interface{}{"threshold": "not_a_number"})
	require.Error(t, err)

	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has(types.ErrKindMissingRequired, "region"))
	assert.True(t, verr.Has(types.ErrKindTypeMismatch, "threshold"))

	// Nothing reached the executor
	assert.Empty(t, f.executor.queries)
}

func TestInvokeUnknownCommand(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "missing", nil)
	assert.True(t, errors.Is(err, types.ErrCommandNotFound))
}

func TestInvokeHiddenFromOtherUsers(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT 1")

	// Prime the cache with the owner's resolve, then retry as another user
	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	bob := types.SecurityContext{UserID: "bob"}
	_, err = f.engine.Invoke(context.Background(), bob, "alice", "top_cells", nil)
	assert.True(t, errors.Is(err, types.ErrCommandNotFound))
}

func TestUpdateTakesEffectImmediately(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT 1")
	ctx := context.Background()

	// Warm the cache
	_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	newText := "SELECT 2"
	_, err = f.engine.UpdateCommand(ctx, alice(), "alice", "top_cells", types.UpdatePatch{TemplateText: &newText})
	require.NoError(t, err)

	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)
	require.Len(t, f.executor.queries, 2)
	assert.Equal(t, "SELECT 2", f.executor.queries[1])
}

func TestDeleteTakesEffectImmediately(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT 1")
	ctx := context.Background()

	_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteCommand(ctx, alice(), "alice", "top_cells"))

	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	assert.True(t, errors.Is(err, types.ErrCommandNotFound))
}

func TestInvokeRecordsAudit(t *testing.T) {
	f := newEngineFixture(t)
	def := registerSample(t, f, types.KindDirectQuery,
		"SELECT * FROM cells WHERE region = {{region:string:required}}")
	ctx := context.Background()

	_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells",
		map[string]interface{}{"region": "north"})
	require.NoError(t, err)

	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.Error(t, err)

	// Drain the async recorder before inspecting the trail
	f.engine.Close()

	history, err := f.engine.audit.History(ctx, def.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var ok, failed *types.ExecutionRecord
	for _, rec := range history {
		if rec.Success {
			ok = rec
		} else {
			failed = rec
		}
	}
	require.NotNil(t, ok)
	require.NotNil(t, failed)
	assert.Equal(t, "alice", ok.Invoker)
	assert.Equal(t, "north", ok.SuppliedParams["region"])
	assert.Equal(t, "2 rows", ok.ResultSummary)
	assert.Equal(t, string(types.ErrKindMissingRequired), failed.ErrorKind)

	// Successful run bumped usage, failed run did not
	got, err := f.engine.GetCommand(ctx, alice(), "alice", "top_cells")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)
}

func TestInvokerHistorySpansCommands(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	for _, name := range []string{"cmd_one", "cmd_two"} {
		_, err := f.engine.RegisterCommand(ctx, alice(), &types.CommandDefinition{
			Name:         name,
			TemplateText: "SELECT 1",
			Kind:         types.KindDirectQuery,
		})
		require.NoError(t, err)
		_, err = f.engine.Invoke(ctx, alice(), "alice", name, nil)
		require.NoError(t, err)
	}

	// Drain the async recorder before inspecting the trail
	f.engine.Close()

	records, err := f.engine.InvokerHistory(ctx, alice(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	bob := types.SecurityContext{UserID: "bob"}
	records, err = f.engine.InvokerHistory(ctx, bob, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInvokeDeniesUnsafeTemplate(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "DELETE FROM cells WHERE region = {{region:string:required}}")

	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells",
		map[string]interface{}{"region": "north"})
	require.Error(t, err)
	assert.Equal(t, types.ErrKindUnsafeQuery, types.KindOf(err))
	assert.Empty(t, f.executor.queries)
}

func TestInvokeTimeout(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT 1")

	slow := &blockingExecutor{}
	rt := router.New(nil, slow, nil, router.DefaultConfig(), nil)
	f.engine.router = rt
	f.engine.cfg.InvocationTimeout = 20 * time.Millisecond

	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrExecutionTimeout))
}

type blockingExecutor struct{}

func (b *blockingExecutor) Query(ctx context.Context, sqlText string) (*types.Rows, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSplitToolTemplate(t *testing.T) {
	cases := []struct {
		in   string
		tool string
		rest string
	}{
		{"cell_report {{region}}", "cell_report", "{{region}}"},
		{"  restart_node  ", "restart_node", ""},
		{"report\n{{a}} {{b}}", "report", "{{a}} {{b}}"},
	}
	for _, tc := range cases {
		tool, rest := splitToolTemplate(tc.in)
		assert.Equal(t, tc.tool, tool, tc.in)
		assert.Equal(t, tc.rest, rest, tc.in)
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "scalar", summarize(&types.ExecutionResult{Kind: types.ResultScalar}))
	assert.Equal(t, "text (2 chars)", summarize(&types.ExecutionResult{Kind: types.ResultText, Text: "ok"}))
	assert.True(t, strings.HasSuffix(summarize(&types.ExecutionResult{
		Kind: types.ResultRows,
		Rows: &types.Rows{Values: [][]interface{}{{1}}},
	}), "rows"))
}

func TestInvokeServesFromCacheWithinTTL(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT 1")
	ctx := context.Background()

	// First invocation resolves through the registry and caches the definition
	_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	// Deactivate the row behind the engine's back, bypassing the registry and
	// its invalidation hook
	_, err = f.db.Exec("UPDATE hot_commands SET is_active = 0 WHERE owner = 'alice' AND name = 'top_cells'")
	require.NoError(t, err)

	// Within the TTL the cached definition still serves
	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)
	assert.Len(t, f.executor.queries, 2)

	// Once the entry expires the registry is consulted again
	f.engine.cache.SetTTL(time.Nanosecond)
	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	assert.True(t, errors.Is(err, types.ErrCommandNotFound))
}

func TestWatchConfigAppliesDenylist(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT * FROM cells")
	ctx := context.Background()

	_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\ndenylist = [\"select\"]\n"), 0644))

	w, err := WatchConfig(path, f.engine)
	require.NoError(t, err)
	defer w.Close()

	// Settings from the file apply before any filesystem event fires
	_, err = f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrKindUnsafeQuery, types.KindOf(err))

	// An edit restoring the default denylist is picked up by the watcher
	require.NoError(t, os.WriteFile(path, []byte("[engine]\ndenylist = []\n"), 0644))
	assert.Eventually(t, func() bool {
		_, err := f.engine.Invoke(ctx, alice(), "alice", "top_cells", nil)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
}

func TestReconfigureSwapsDenylist(t *testing.T) {
	f := newEngineFixture(t)
	registerSample(t, f, types.KindDirectQuery, "SELECT * FROM cells")

	_, err := f.engine.Invoke(context.Background(), alice(), "alice", "top_cells", nil)
	require.NoError(t, err)

	f.engine.Reconfigure(0, []string{"select"})
	_, err = f.engine.Invoke(context.Background(), alice(), "alice", "top_cells", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrKindUnsafeQuery, types.KindOf(err))

	f.engine.Reconfigure(0, nil)
	_, err = f.engine.Invoke(context.Background(), alice(), "alice", "top_cells", nil)
	require.NoError(t, err)
}
