package toolcall

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

func TestInvokeWithoutServerConfigured(t *testing.T) {
	tr := New(Config{}, nil)
	_, err := tr.Invoke(context.Background(), "cell_report", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
}

func TestInvokeUnreachableServer(t *testing.T) {
	tr := New(Config{Command: "/nonexistent/mcp-server"}, nil)
	defer tr.Close()

	_, err := tr.Invoke(context.Background(), "cell_report", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
}

func TestCloseWithoutConnect(t *testing.T) {
	tr := New(Config{Command: "server"}, nil)
	assert.NoError(t, tr.Close())
}

func TestFlattenContent(t *testing.T) {
	content := []mcp.Content{
		mcp.TextContent{Type: "text", Text: "line one"},
		mcp.ImageContent{Type: "image"},
		mcp.TextContent{Type: "text", Text: "line two"},
	}
	assert.Equal(t, "line one\nline two", flattenContent(content))
	assert.Equal(t, "", flattenContent(nil))
}
