package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestTextLogger_VerboseWritesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, true)
	ctx := context.Background()

	log.Debug(ctx, "attempt", "request_id", "r1")
	log.Info(ctx, "scan", "machine", "leg-press")
	log.Warn(ctx, "refresh", "error", "offline")
	log.Error(ctx, "upload", "status", 500)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "attempt", "request_id=r1"},
		{"INFO", "scan", "machine=leg-press"},
		{"WARN", "refresh", "error=offline"},
		{"ERROR", "upload", "status=500"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected msg=%s in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.attr) {
			t.Fatalf("expected %s in output:\n%s", tc.attr, out)
		}
	}
}

func TestTextLogger_QuietDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, false)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record must be filtered:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info record missing:\n%s", out)
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, false).With("module", "fetch")

	log.Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{"module=fetch", "msg=hello", "k=v"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	log := NewNopLogger()
	ctx := context.TODO()

	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.Warn(ctx, "x")
	log.Error(ctx, "x")
	log.With("a", 1).Info(ctx, "y")
}
