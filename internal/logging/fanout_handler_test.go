package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
}

func TestNewFanoutHandlerSingleHandlerUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeLoggerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := TeeLogger(base, debug).With("component", "moviepy")
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any sink accepts debug")
	}
	logger.Debug("details")
	logger.Info("summary")

	if strings.Contains(infoBuf.String(), "details") {
		t.Fatalf("info sink received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "summary") || !strings.Contains(debugBuf.String(), "details") {
		t.Fatalf("unexpected sink contents: info=%q debug=%q", infoBuf.String(), debugBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "component=moviepy") {
		t.Fatalf("expected attrs propagated to every sink, got %q", debugBuf.String())
	}
}
