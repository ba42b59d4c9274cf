package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerGatesByLevel(t *testing.T) {
	logger := NewJSONLogger("docvault-test", "error")
	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelWarn) {
		t.Fatal("warn enabled at error level")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Fatal("error disabled at error level")
	}
}
