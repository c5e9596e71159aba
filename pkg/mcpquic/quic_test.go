package mcpquic

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// startTestListener serves a single-tool MCP server on a loopback QUIC
// socket and returns its address.
func startTestListener(t *testing.T) string {
	t.Helper()

	srv := server.NewMCPServer("diagnose-test", "0.0.0", server.WithToolCapabilities(false))
	srv.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo the text argument back."),
			mcp.WithString("text", mcp.Required()),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, _ := req.GetArguments()["text"].(string)
			return mcp.NewToolResultText(text), nil
		},
	)

	tlsCfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatalf("tls config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ln, err := NewListener("127.0.0.1:0", tlsCfg, srv, logger)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ln.Serve(ctx)

	return ln.Addr()
}

func TestClientServerRoundTrip(t *testing.T) {
	addr := startTestListener(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cli := NewClient(addr, ClientTLSConfig(true))
	if err := cli.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cli.Close()

	tools, err := cli.ListTools(ctx)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != "echo" {
		t.Fatalf("tools = %+v, want the echo tool", tools.Tools)
	}

	result, err := cli.CallTool(ctx, "echo", map[string]any{"text": "barulho no freio"})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok || tc.Text != "barulho no freio" {
		t.Errorf("content = %+v, want echoed text", result.Content)
	}

	if err := cli.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestClientMethodsBeforeConnect(t *testing.T) {
	cli := NewClient("127.0.0.1:1", nil)
	if _, err := cli.ListTools(context.Background()); err != ErrNotConnected {
		t.Errorf("ListTools err = %v, want ErrNotConnected", err)
	}
	if _, err := cli.CallTool(context.Background(), "echo", nil); err != ErrNotConnected {
		t.Errorf("CallTool err = %v, want ErrNotConnected", err)
	}
}
