package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/oficina-cloud/diagnose/pkg/mcpquic"
)

// cmdCall invokes one MCP tool on a running server over QUIC and prints the
// text content it returns. Handy for smoke-testing the UDP side of the
// chassis without an MCP-capable client at hand.
func cmdCall(args []string) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8430", "server address (UDP)")
	tool := fs.String("tool", "suggest_problems", "MCP tool to invoke")
	symptoms := fs.String("symptoms", "", "comma-separated symptom phrases")
	category := fs.String("category", "", "optional category filter")
	insecure := fs.Bool("insecure", true, "skip TLS verification (self-signed dev servers)")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli := mcpquic.NewClient(*addr, mcpquic.ClientTLSConfig(*insecure))
	if err := cli.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer cli.Close()

	callArgs := map[string]any{}
	if *symptoms != "" {
		callArgs["symptoms"] = *symptoms
	}
	if *category != "" {
		callArgs["category"] = *category
	}

	result, err := cli.CallTool(ctx, *tool, callArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "call %s: %v\n", *tool, err)
		os.Exit(1)
	}
	if result.IsError {
		fmt.Fprintf(os.Stderr, "tool error: %s\n", flattenContent(result))
		os.Exit(1)
	}
	fmt.Println(flattenContent(result))
}

func flattenContent(result *mcp.CallToolResult) string {
	out := ""
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	return out
}
