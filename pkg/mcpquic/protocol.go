package mcpquic

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"
)

// Stream-level error codes.
const (
	StreamErrorNoError           quic.StreamErrorCode = 0x00
	StreamErrorProtocolConfusion quic.StreamErrorCode = 0x02
	StreamErrorMessageTooLarge   quic.StreamErrorCode = 0x03
)

// Connection-level error codes.
const (
	ConnErrorNoError           quic.ApplicationErrorCode = 0x00
	ConnErrorUnsupportedALPN   quic.ApplicationErrorCode = 0x01
	ConnErrorProtocolViolation quic.ApplicationErrorCode = 0x03
)

var (
	ErrInvalidMagicBytes = errors.New("stream preamble is not " + MagicBytesMCP)
	ErrUnsupportedALPN   = errors.New("peer did not negotiate " + ALPNProtocolMCP)
	ErrConnectionClosed  = errors.New("quic connection closed")
)

// ConnectionError annotates a QUIC-level failure with the remote peer.
type ConnectionError struct {
	RemoteAddr string
	Code       quic.ApplicationErrorCode
	Err        error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s error code 0x%02x: %v", e.RemoteAddr, e.Code, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidateMagicBytes consumes the stream preamble and rejects anything that
// is not MagicBytesMCP. The preamble guards against a peer that negotiated
// the MCP ALPN but speaks a different protocol on the stream.
func ValidateMagicBytes(r io.Reader) error {
	got := make([]byte, len(MagicBytesMCP))
	if _, err := io.ReadFull(r, got); err != nil {
		return fmt.Errorf("read preamble: %w", err)
	}
	if !bytes.Equal(got, []byte(MagicBytesMCP)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagicBytes, string(got))
	}
	return nil
}

// SendMagicBytes writes the preamble. Clients call it first thing after
// opening the session stream.
func SendMagicBytes(w io.Writer) error {
	if _, err := w.Write([]byte(MagicBytesMCP)); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}
	return nil
}
