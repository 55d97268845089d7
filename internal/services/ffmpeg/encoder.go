// Package ffmpeg runs encoder commands built by the burn-in package and
// reports failures with the process exit code and trimmed diagnostics.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"dualsub/internal/burnin"
	"dualsub/internal/logging"
)

// maxDiagnostics bounds how much stderr is kept on an EncodeError.
const maxDiagnostics = 4096

// EncodeError reports a non-zero encoder exit.
type EncodeError struct {
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *EncodeError) Error() string {
	if e.Diagnostics == "" {
		return fmt.Sprintf("encoder exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("encoder exited with status %d: %s", e.ExitCode, e.Diagnostics)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encoder executes burn-in commands.
type Encoder struct {
	logger *slog.Logger
	exec   func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewEncoder constructs an Encoder.
func NewEncoder(logger *slog.Logger) *Encoder {
	return &Encoder{
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		exec:   exec.CommandContext,
	}
}

// Run executes cmd and waits for it. Cancellation kills the process.
func (e *Encoder) Run(ctx context.Context, cmd burnin.Command) error {
	if strings.TrimSpace(cmd.Binary) == "" {
		return errors.New("encoder: binary required")
	}
	started := time.Now()
	e.logger.Debug("encoder command", logging.String("command", cmd.String()))

	proc := e.exec(ctx, cmd.Binary, cmd.Args...) //nolint:gosec
	var stderr bytes.Buffer
	proc.Stderr = &stderr
	err := proc.Run()
	if err == nil {
		e.logger.Info("encoder finished",
			logging.String(logging.FieldEventType, "encode_finished"),
			logging.Duration("elapsed", time.Since(started)),
		)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("encoder canceled: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &EncodeError{
			ExitCode:    exitErr.ExitCode(),
			Diagnostics: trimDiagnostics(stderr.String()),
			Err:         err,
		}
	}
	return fmt.Errorf("start encoder %s: %w", cmd.Binary, err)
}

// trimDiagnostics keeps the tail of stderr, where ffmpeg reports the cause.
func trimDiagnostics(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDiagnostics {
		return s
	}
	tail := s[len(s)-maxDiagnostics:]
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return "..." + tail
}
