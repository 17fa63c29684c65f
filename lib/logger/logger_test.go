package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Debug("hidden")
	log.Info("visible", "image", "alpine")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "visible", record["msg"])
	require.Equal(t, "alpine", record["image"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf})

	ctx := AddToContext(context.Background(), log)
	require.Same(t, log, FromContext(ctx))
	require.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanout(
		slog.NewTextHandler(&a, nil),
		nil,
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("run_id", "abc")

	log.Info("hello")
	require.Contains(t, a.String(), "hello")
	require.Contains(t, a.String(), "run_id=abc")
	require.Empty(t, b.String())

	log.Error("boom")
	require.Contains(t, b.String(), "boom")
}
