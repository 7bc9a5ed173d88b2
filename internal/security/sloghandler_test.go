package security

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newCaptureLogger(r *Redactor) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	return slog.New(NewRedactingHandler(inner, r)), &buf
}

func TestHandlerRedactsAttrs(t *testing.T) {
	r := NewRedactor()
	r.AddLiteral("secret-token")
	logger, buf := newCaptureLogger(r)

	logger.Info("request sent", "authorization", "Bearer secret-token")

	out := buf.String()
	if strings.Contains(out, "secret-token") {
		t.Errorf("log output leaked secret: %q", out)
	}
	if !strings.Contains(out, RedactPlaceholder) {
		t.Errorf("log output missing placeholder: %q", out)
	}
}

func TestHandlerRedactsMessage(t *testing.T) {
	r := NewRedactor()
	logger, buf := newCaptureLogger(r)

	logger.Warn("rejected key sk-abcdefghijklmnopqrstuvwxyz123456")

	if out := buf.String(); strings.Contains(out, "sk-abcdef") {
		t.Errorf("log output leaked secret: %q", out)
	}
}

func TestHandlerRedactsWithAttrs(t *testing.T) {
	r := NewRedactor()
	r.AddLiteral("secret-token")
	logger, buf := newCaptureLogger(r)

	logger.With("token", "secret-token").Info("poller started")

	if out := buf.String(); strings.Contains(out, "secret-token") {
		t.Errorf("log output leaked secret via With: %q", out)
	}
}

func TestHandlerRedactsErrors(t *testing.T) {
	r := NewRedactor()
	r.AddLiteral("secret-token")
	logger, buf := newCaptureLogger(r)

	logger.Error("request failed", "error", &tokenError{})

	if out := buf.String(); strings.Contains(out, "secret-token") {
		t.Errorf("log output leaked secret via error: %q", out)
	}
}

type tokenError struct{}

func (e *tokenError) Error() string {
	return "401 unauthorized for token secret-token"
}
