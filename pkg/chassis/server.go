// Package chassis binds the diagnose API to one address over two sockets.
//
// The TCP side serves HTTP/1.1 and HTTP/2 over TLS. The UDP side serves
// QUIC and demuxes by negotiated ALPN: "h3" connections go to an HTTP/3
// server sharing the same handler, the diagnose MCP token goes to
// MCP-over-QUIC sessions. Responses on the HTTP side carry an Alt-Svc
// header so capable clients discover the HTTP/3 endpoint.
//
// Without cert/key files a self-signed localhost certificate is generated,
// which is only meant for development.
package chassis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/oficina-cloud/diagnose/pkg/mcpquic"
)

// Config configures a chassis Server.
type Config struct {
	Addr      string            // listen address, shared by TCP and UDP
	TLS       *tls.Config       // nil means build from CertFile/KeyFile or self-sign
	CertFile  string
	KeyFile   string
	Handler   http.Handler      // the API routes
	MCPServer *server.MCPServer // nil disables the MCP side of the UDP socket
	Logger    *slog.Logger
}

// Server runs the dual-socket listener described in the package comment.
type Server struct {
	addr    string
	logger  *slog.Logger
	tlsCfg  *tls.Config
	handler http.Handler
	mcp     *mcpquic.Handler

	web  *http.Server
	h3   *http3.Server
	quic *quic.Listener
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	tlsCfg, err := resolveTLS(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: withChassisHeaders(cfg.Addr, cfg.Handler),
	}
	if cfg.MCPServer != nil {
		s.mcp = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

func resolveTLS(cfg Config) (*tls.Config, error) {
	if cfg.TLS != nil {
		return cfg.TLS, nil
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsCfg, err := FileTLSConfig(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert: %w", err)
		}
		cfg.Logger.Info("tls certificates loaded", "cert", cfg.CertFile)
		return tlsCfg, nil
	}
	tlsCfg, err := DevTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("generate dev TLS: %w", err)
	}
	cfg.Logger.Info("tls self-signed dev certificate generated")
	return tlsCfg, nil
}

// withChassisHeaders adds the security headers every response carries plus
// the Alt-Svc advertisement for the UDP side.
func withChassisHeaders(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "8430"
	}
	altSvc := fmt.Sprintf(`h3=":%s"; ma=86400`, port)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Alt-Svc", altSvc)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		next.ServeHTTP(w, r)
	})
}

// Start brings up both sockets and blocks until the context is cancelled or
// a listener fails.
func (s *Server) Start(ctx context.Context) error {
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	s.web = &http.Server{Addr: s.addr, Handler: s.handler, TLSConfig: tcpTLS}

	ln, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.DefaultQUICConfig())
	if err != nil {
		return fmt.Errorf("quic listen %s: %w", s.addr, err)
	}
	s.quic = ln
	s.h3 = &http3.Server{Handler: s.handler}

	s.logger.Info("chassis up", "addr", s.addr)

	errCh := make(chan error, 2)
	go s.serveTCP(tcpTLS, errCh)
	go s.acceptQUIC(ctx, ln, errCh)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) serveTCP(tlsCfg *tls.Config, errCh chan<- error) {
	ln, err := tls.Listen("tcp", s.addr, tlsCfg)
	if err != nil {
		errCh <- fmt.Errorf("tcp listen %s: %w", s.addr, err)
		return
	}
	s.logger.Info("http listener ready", "addr", s.addr)
	if err := s.web.Serve(ln); err != nil && err != http.ErrServerClosed {
		errCh <- fmt.Errorf("http serve: %w", err)
	}
}

// acceptQUIC routes each incoming QUIC connection by its negotiated ALPN.
func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener, errCh chan<- error) {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errCh <- fmt.Errorf("quic accept: %w", err)
			return
		}
		s.routeConn(ctx, conn)
	}
}

func (s *Server) routeConn(ctx context.Context, conn *quic.Conn) {
	switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
	case "h3":
		go func() {
			if err := s.h3.ServeQUICConn(conn); err != nil {
				s.logger.Debug("http3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case mcpquic.ALPNProtocolMCP:
		if s.mcp == nil {
			conn.CloseWithError(quic.ApplicationErrorCode(0x10), "mcp disabled")
			return
		}
		go s.mcp.ServeConn(ctx, conn)
	default:
		s.logger.Warn("rejecting unknown ALPN", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(quic.ApplicationErrorCode(0x11), "unsupported ALPN: "+alpn)
	}
}

// Stop shuts down every listener, draining in-flight HTTP requests.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("chassis stopping")

	var firstErr error
	if s.web != nil {
		if err := s.web.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.quic != nil {
		if err := s.quic.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.h3 != nil {
		if err := s.h3.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
