package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewTeeHandlerNilHandlers(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
}

func TestNewTeeHandlerSingleHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeLoggerRespectsPerHandlerLevels(t *testing.T) {
	var console, file bytes.Buffer
	base := slog.New(slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := TeeLogger(base, NewJSONFileHandler(&file)).With(String(FieldRunID, "r1"))

	logger.Debug("detail")
	logger.Info("summary")

	if strings.Contains(console.String(), "detail") {
		t.Fatalf("console should not receive debug: %q", console.String())
	}
	if !strings.Contains(console.String(), "summary") {
		t.Fatalf("console missing info: %q", console.String())
	}
	for _, want := range []string{`"msg":"detail"`, `"msg":"summary"`, `"run_id":"r1"`} {
		if !strings.Contains(file.String(), want) {
			t.Fatalf("file missing %s: %q", want, file.String())
		}
	}
}

func TestTeeHandlerEnabled(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be disabled")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("expected warn to be enabled")
	}
}

func TestComposeSubject(t *testing.T) {
	tests := []struct {
		run, stage, want string
	}{
		{"", "", ""},
		{"abc", "", "run abc"},
		{"", "merge", "merge"},
		{"0123456789", "burn", "run 01234567 (burn)"},
	}
	for _, tt := range tests {
		if got := composeSubject(tt.run, tt.stage); got != tt.want {
			t.Errorf("composeSubject(%q, %q) = %q, want %q", tt.run, tt.stage, got, tt.want)
		}
	}
}

func TestJSONFileHandlerRecordShape(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONFileHandler(&buf))
	logger.Debug("stage completed", Duration("stage_duration", 1500*time.Millisecond))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if record["level"] != "debug" || record["stage_duration"] != 1.5 {
		t.Fatalf("unexpected record %v", record)
	}
	ts, _ := record["ts"].(string)
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil || !strings.HasSuffix(ts, "Z") || len(ts) != len("2006-01-02T15:04:05.000Z") {
		t.Fatalf("unexpected ts %q (%v)", ts, err)
	}
	if _, ok := record["time"]; ok {
		t.Fatalf("time key should be renamed: %v", record)
	}
}
