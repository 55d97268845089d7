package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dualsub/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestLast(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"fewer than file", 2, []string{"b", "c"}},
		{"more than file", 10, []string{"a", "b", "c"}},
		{"offset only", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, offset, err := logs.Last(path, tt.limit)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if strings.Join(lines, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("lines = %#v, want %#v", lines, tt.want)
			}
			if offset != 6 {
				t.Fatalf("offset = %d, want 6", offset)
			}
		})
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("got %v %d %v", lines, offset, err)
	}
}

func TestReadFromLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntwo\npart")
	lines, offset, err := logs.ReadFrom(path, 0)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if strings.Join(lines, ",") != "one,two" || offset != 8 {
		t.Fatalf("lines = %#v offset = %d", lines, offset)
	}

	appendLog(t, path, "ial\n")
	lines, offset, err = logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "partial" || offset != 16 {
		t.Fatalf("lines = %#v offset = %d", lines, offset)
	}
}

func TestReadFromTruncatedRestarts(t *testing.T) {
	path := writeLog(t, "x\n")
	lines, _, err := logs.ReadFrom(path, 100)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "x" {
		t.Fatalf("lines = %#v", lines)
	}
}

func TestFollowUntilFinished(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	var finished atomic.Bool
	go func() {
		defer finished.Store(true)
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Errorf("open append: %v", err)
			return
		}
		_, _ = f.WriteString("later\n")
		_ = f.Close()
		time.Sleep(50 * time.Millisecond)
	}()

	var got []string
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = logs.Follow(ctx, path, offset, 10*time.Millisecond, finished.Load, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("got %#v", got)
	}
}

func TestFollowStopsOnCancel(t *testing.T) {
	path := writeLog(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := logs.Follow(ctx, path, 0, time.Millisecond, nil, func(string) {}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRender(t *testing.T) {
	line := `{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"stage completed","stage":"merge","stage_duration":1.5,"note":"two words"}`
	got := logs.Render(line)
	if !strings.Contains(got, "INFO  stage completed") {
		t.Fatalf("render = %q", got)
	}
	if !strings.HasSuffix(got, `note="two words" stage=merge stage_duration=1.5`) {
		t.Fatalf("render = %q", got)
	}
	if logs.Render("plain text") != "plain text" {
		t.Fatal("non-JSON lines pass through")
	}
}
