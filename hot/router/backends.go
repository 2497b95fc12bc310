package router

import (
	"context"

	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Translator turns natural-language text into a SQL string. Implementations
// wrap an LLM or any other text-to-SQL service; the router treats them as a
// black box whose output is untrusted until re-checked.
type Translator interface {
	Translate(ctx context.Context, text, schemaContext string) (string, error)
}

// QueryExecutor runs a SQL statement against the analytics store and returns
// the result set. Implementations must honor context cancellation.
type QueryExecutor interface {
	Query(ctx context.Context, sqlText string) (*types.Rows, error)
}

// ToolTransport dispatches a structured argument map to an external tool.
//
// Implementations classify failures: transport-level problems (process dead,
// connection refused) wrap types.ErrToolUnavailable and are eligible for
// retry; a tool rejecting the payload wraps types.ErrToolInvocation and is
// not retried.
type ToolTransport interface {
	Invoke(ctx context.Context, tool string, args map[string]interface{}) (string, error)
}

// Payload is the rendered input for one route. Exactly one shape is set:
// Text for query routes, Tool+Args for the tool route.
type Payload struct {
	Text string
	Tool string
	Args map[string]interface{}
}
