// Package toolcall dispatches tool-call commands to an MCP server running
// as a stdio subprocess. Transport failures and tool rejections are kept
// distinct: the former are transient and retryable, the latter are not.
package toolcall

import (
	"context"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Config describes the MCP server subprocess.
type Config struct {
	// Command is the server executable.
	Command string
	// Args are passed to the executable.
	Args []string
	// Env entries (KEY=VALUE) added to the subprocess environment.
	Env []string
}

// Transport implements the router's ToolTransport over one MCP server.
// Connection is lazy and re-established after a transport failure.
type Transport struct {
	cfg    Config
	logger *zap.SugaredLogger

	mu     sync.Mutex
	client *mcpclient.Client
}

// New creates a Transport. The subprocess is not started until the first
// invocation.
func New(cfg Config, logger *zap.SugaredLogger) *Transport {
	return &Transport{cfg: cfg, logger: logger}
}

// Invoke calls the named tool with args and returns its text output.
//
// A dead or unreachable server process wraps types.ErrToolUnavailable; the
// router may retry those. A tool error result wraps types.ErrToolInvocation
// and is final.
func (t *Transport) Invoke(ctx context.Context, tool string, args map[string]interface{}) (string, error) {
	client, err := t.connect(ctx)
	if err != nil {
		return "", err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := client.CallTool(ctx, req)
	if err != nil {
		// The session is suspect after any call error; force a fresh
		// subprocess on the next attempt
		t.reset()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.WithSecondaryError(
			errors.Wrapf(types.ErrToolUnavailable, "tool %q call failed", tool), err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return "", errors.Wrapf(types.ErrToolInvocation, "tool %q: %s", tool, text)
	}
	return text, nil
}

// Tools lists the tool names the server exposes.
func (t *Transport) Tools(ctx context.Context) ([]string, error) {
	client, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.reset()
		return nil, errors.WithSecondaryError(
			errors.Wrap(types.ErrToolUnavailable, "list tools"), err)
	}
	names := make([]string, len(resp.Tools))
	for i, tool := range resp.Tools {
		names[i] = tool.Name
	}
	return names, nil
}

// Close terminates the server subprocess.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *Transport) connect(ctx context.Context) (*mcpclient.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	if t.cfg.Command == "" {
		return nil, errors.Wrap(types.ErrToolUnavailable, "no tool server configured")
	}

	client, err := mcpclient.NewStdioMCPClient(t.cfg.Command, t.cfg.Env, t.cfg.Args...)
	if err != nil {
		return nil, errors.WithSecondaryError(
			errors.Wrapf(types.ErrToolUnavailable, "start tool server %q", t.cfg.Command), err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "hotcmd", Version: "1.0.0"}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		client.Close()
		return nil, errors.WithSecondaryError(
			errors.Wrap(types.ErrToolUnavailable, "initialize tool server"), err)
	}

	if t.logger != nil {
		t.logger.Debugw("Connected to tool server", "command", t.cfg.Command)
	}
	t.client = client
	return client, nil
}

func (t *Transport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Close()
		t.client = nil
	}
}

func flattenContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if text, ok := item.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
