package mcpquic

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"

	"github.com/oficina-cloud/diagnose/pkg/kit"
)

// Handler runs MCP sessions on QUIC connections handed to it by someone
// else's accept loop. The chassis demuxes a shared UDP socket by ALPN and
// passes the MCP side here; Listener below wraps it for standalone use.
type Handler struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcp: mcpSrv, logger: logger}
}

// ServeConn runs one MCP session over the connection's first stream and
// returns when the peer disconnects or the context is cancelled.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := h.handshake(ctx, conn)
	if err != nil {
		h.logger.Warn("mcp handshake rejected", "remote", remote, "error", err)
		return
	}

	id := "qs-" + uuid.NewString()[:8]
	h.logger.Info("mcp session open", "session", id, "remote", remote)
	h.runSession(ctx, id, stream)
	h.logger.Info("mcp session closed", "session", id, "remote", remote)
}

// handshake accepts the session stream and checks the protocol preamble.
// On any failure the connection is closed before returning.
func (h *Handler) handshake(ctx context.Context, conn *quic.Conn) (*quic.Stream, error) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "no session stream")
		return nil, fmt.Errorf("accept stream: %w", err)
	}
	if err := ValidateMagicBytes(stream); err != nil {
		stream.CancelWrite(StreamErrorProtocolConfusion)
		stream.CancelRead(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "bad preamble")
		return nil, err
	}
	return stream, nil
}

// runSession pumps newline-delimited JSON-RPC messages between the stream
// and the MCP server until the stream ends.
func (h *Handler) runSession(ctx context.Context, id string, stream *quic.Stream) {
	sess := newSession(id, stream)
	if err := h.mcp.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("register session", "session", id, "error", err)
		stream.Close()
		return
	}
	defer h.mcp.UnregisterSession(ctx, id)

	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = h.mcp.WithContext(ctx, sess)

	go sess.pumpNotifications(ctx)

	sc := bufio.NewScanner(stream)
	sc.Buffer(make([]byte, 64*1024), MaxMessageSize)
	for sc.Scan() {
		msg := sc.Bytes()
		if len(msg) == 0 {
			continue
		}
		resp := h.mcp.HandleMessage(ctx, json.RawMessage(msg))
		if resp == nil {
			continue
		}
		if err := sess.writeMessage(resp); err != nil {
			h.logger.Error("session write", "session", id, "error", err)
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		if errors.Is(err, bufio.ErrTooLong) {
			stream.CancelRead(StreamErrorMessageTooLarge)
			h.logger.Warn("message over size limit", "session", id, "limit", MaxMessageSize)
			return
		}
		if !errors.Is(err, io.EOF) {
			h.logger.Error("session read", "session", id, "error", err)
		}
	}
}

// Listener owns a QUIC listener of its own and serves MCP sessions on it.
// Deployments embedding the chassis use Handler directly instead.
type Listener struct {
	ql      *quic.Listener
	handler *Handler
	logger  *slog.Logger
}

func NewListener(addr string, tlsCfg *tls.Config, mcpSrv *server.MCPServer, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ql, err := quic.ListenAddr(addr, tlsCfg, DefaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("quic listen %s: %w", addr, err)
	}
	logger.Info("mcp quic listening", "addr", ql.Addr().String())
	return &Listener{ql: ql, handler: NewHandler(mcpSrv, logger), logger: logger}, nil
}

// Addr reports the bound UDP address, useful when listening on port 0.
func (l *Listener) Addr() string { return l.ql.Addr().String() }

func (l *Listener) Serve(ctx context.Context) error {
	for {
		conn, err := l.ql.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("quic accept", "error", err)
			continue
		}
		if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
			conn.CloseWithError(ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
			continue
		}
		go l.handler.ServeConn(ctx, conn)
	}
}

func (l *Listener) Close() error {
	return l.ql.Close()
}
