package mcpquic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quic-go/quic-go"
)

// ErrNotConnected is returned by Client methods called before Connect.
var ErrNotConnected = errors.New("mcp quic client: not connected")

// Client dials an MCP server over QUIC. It is used by the `diagnose call`
// subcommand and by integration tests; create with NewClient, then Connect.
type Client struct {
	addr   string
	tlsCfg *tls.Config

	conn   *quic.Conn
	stream *quic.Stream
	mcp    *client.Client
}

func NewClient(addr string, tlsCfg *tls.Config) *Client {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(true) // dev default: self-signed servers
	}
	return &Client{addr: addr, tlsCfg: tlsCfg}
}

// Connect dials the server, opens the session stream and completes the MCP
// initialize exchange. The client is unusable until Connect succeeds.
func (c *Client) Connect(ctx context.Context) error {
	stream, err := c.dial(ctx)
	if err != nil {
		return err
	}

	// The server reads requests from the stream; responses come back on the
	// same stream, so the transport's stdin side stays empty.
	mcpClient := client.NewClient(transport.NewIO(stream, streamWriter{stream}, emptyReader{}))
	if err := mcpClient.Start(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("start mcp transport: %w", err)
	}
	if err := c.initialize(ctx, mcpClient); err != nil {
		c.teardown()
		return err
	}
	c.mcp = mcpClient
	return nil
}

// dial establishes the QUIC connection, checks the negotiated ALPN and sends
// the stream preamble. On success c.conn and c.stream are set.
func (c *Client) dial(ctx context.Context) (*quic.Stream, error) {
	conn, err := quic.DialAddr(ctx, c.addr, c.tlsCfg, DefaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("quic dial %s: %w", c.addr, err)
	}
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		conn.CloseWithError(ConnErrorUnsupportedALPN, "bad ALPN")
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedALPN, alpn)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "stream open failed")
		return nil, fmt.Errorf("open session stream: %w", err)
	}
	if err := SendMagicBytes(stream); err != nil {
		stream.Close()
		conn.CloseWithError(ConnErrorProtocolViolation, "preamble failed")
		return nil, err
	}

	c.conn = conn
	c.stream = stream
	return stream, nil
}

func (c *Client) initialize(ctx context.Context, mcpClient *client.Client) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "diagnose-quic-client",
		Version: "1.0.0",
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultHandshakeTimeout)
	defer cancel()
	if _, err := mcpClient.Initialize(ctx, req); err != nil {
		return fmt.Errorf("mcp initialize: %w", err)
	}
	return nil
}

func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if c.mcp == nil {
		return nil, ErrNotConnected
	}
	return c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.mcp == nil {
		return nil, ErrNotConnected
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcp.CallTool(ctx, req)
}

func (c *Client) Ping(ctx context.Context) error {
	if c.mcp == nil {
		return ErrNotConnected
	}
	return c.mcp.Ping(ctx)
}

func (c *Client) Close() error {
	if c.mcp != nil {
		c.mcp.Close()
	}
	c.teardown()
	return nil
}

func (c *Client) teardown() {
	if c.stream != nil {
		c.stream.Close()
	}
	if c.conn != nil {
		c.conn.CloseWithError(ConnErrorNoError, "client closing")
	}
}

// streamWriter adapts the QUIC stream to the io.WriteCloser the MCP
// transport expects for its output side.
type streamWriter struct{ s *quic.Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.s.Write(p) }
func (w streamWriter) Close() error                { return w.s.Close() }

// emptyReader is the transport's unused stderr side.
type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }
func (emptyReader) Close() error             { return nil }
