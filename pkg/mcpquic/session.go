package mcpquic

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
)

// session is the server.ClientSession for one QUIC stream. All writes to
// the stream (responses and notifications) go through writeMessage so they
// never interleave.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	mu sync.Mutex
	w  io.Writer
}

func newSession(id string, w io.Writer) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

// writeMessage marshals v and writes it as one newline-delimited frame.
func (s *session) writeMessage(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(data)
	return err
}

// pumpNotifications drains the notification channel onto the stream until
// the session context ends.
func (s *session) pumpNotifications(ctx context.Context) {
	for {
		select {
		case notif := <-s.notifications:
			_ = s.writeMessage(notif)
		case <-ctx.Done():
			return
		}
	}
}
