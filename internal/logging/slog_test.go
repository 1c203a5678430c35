// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf)))

	logger.Warn("service restarted",
		"service", "gateway",
		"attempt", 3,
		"backoff", 2*time.Second,
		"err", errors.New("boom"),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"service":"gateway"`,
		`"attempt":3`,
		`"err":"boom"`,
		`"message":"service restarted"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewSlogHandler(zerolog.New(&buf)).
		WithAttrs([]slog.Attr{slog.String("tree", "root")}).
		WithGroup("event")
	slog.New(h).Info("x", "kind", "terminate")

	out := buf.String()
	if !strings.Contains(out, `"event.tree":"root"`) {
		t.Errorf("expected grouped attr, got %s", out)
	}
	if !strings.Contains(out, `"event.kind":"terminate"`) {
		t.Errorf("expected grouped record attr, got %s", out)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled on a warn logger")
	}
	if !h.Enabled(t.Context(), slog.LevelError) {
		t.Error("error should be enabled on a warn logger")
	}
}

func TestToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := toZerologLevel(tt.in); got != tt.want {
			t.Errorf("toZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
