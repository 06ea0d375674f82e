package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLogger_JSONFieldsAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo, FormatJSON)

	logger.Debug("hidden", "k", "v")
	logger.InfoContext(context.Background(), "upsert rows", "table", "clubs", "rows", 3, "error", errors.New("boom"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered at info level: %s", out)
	}
	for _, want := range []string{`"msg":"upsert rows"`, `"table":"clubs"`, `"rows":3`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output: %s", want, out)
		}
	}
}

func TestLogger_OddArgsKeepTrailingKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo, FormatJSON)

	logger.Warn("dangling", "round_id")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), `"round_id":null`) {
		t.Fatalf("expected dangling key to be logged as null: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
}
