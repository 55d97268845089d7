package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/burnin"
	"dualsub/internal/testsupport"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	return testsupport.WriteScript(t, t.TempDir(), "fake-ffmpeg", body)
}

func TestRunSuccess(t *testing.T) {
	bin := writeScript(t, "exit 0")
	if err := NewEncoder(nil).Run(context.Background(), burnin.Command{Binary: bin, Args: []string{"-y"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunReportsExitCodeAndDiagnostics(t *testing.T) {
	bin := writeScript(t, "echo 'No such filter: subtitles' >&2\nexit 3")
	err := NewEncoder(nil).Run(context.Background(), burnin.Command{Binary: bin})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if encErr.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", encErr.ExitCode)
	}
	if encErr.Diagnostics != "No such filter: subtitles" {
		t.Fatalf("diagnostics = %q", encErr.Diagnostics)
	}
}

func TestRunMissingBinary(t *testing.T) {
	err := NewEncoder(nil).Run(context.Background(), burnin.Command{Binary: filepath.Join(t.TempDir(), "absent")})
	var encErr *EncodeError
	if err == nil || errors.As(err, &encErr) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	bin := writeScript(t, "sleep 5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewEncoder(nil).Run(ctx, burnin.Command{Binary: bin})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestTrimDiagnosticsKeepsTail(t *testing.T) {
	long := strings.Repeat("frame=1\n", 1000) + "Error opening output"
	got := trimDiagnostics(long)
	if len(got) > maxDiagnostics+3 || !strings.HasSuffix(got, "Error opening output") || !strings.HasPrefix(got, "...") {
		t.Fatalf("unexpected trim result (%d bytes): %q", len(got), got[:40])
	}
}
