package mcpquic

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMagicBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidateMagicBytes_WrongPreamble(t *testing.T) {
	err := ValidateMagicBytes(strings.NewReader("GET /v1/health"))
	if !errors.Is(err, ErrInvalidMagicBytes) {
		t.Errorf("err = %v, want ErrInvalidMagicBytes", err)
	}
}

func TestValidateMagicBytes_ShortRead(t *testing.T) {
	err := ValidateMagicBytes(strings.NewReader("MC"))
	if err == nil {
		t.Fatal("want error on truncated preamble")
	}
	if errors.Is(err, ErrInvalidMagicBytes) {
		t.Errorf("err = %v, want an io error, not a mismatch", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestConnectionError(t *testing.T) {
	inner := errors.New("boom")
	cerr := &ConnectionError{RemoteAddr: "10.0.0.1:1234", Code: ConnErrorProtocolViolation, Err: inner}
	if !errors.Is(cerr, inner) {
		t.Error("Unwrap should reach the inner error")
	}
	if !strings.Contains(cerr.Error(), "10.0.0.1:1234") {
		t.Errorf("Error() = %q, want remote addr included", cerr.Error())
	}
}
