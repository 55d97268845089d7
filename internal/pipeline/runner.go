package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dualsub/internal/burnin"
	"dualsub/internal/config"
	"dualsub/internal/journal"
	"dualsub/internal/logging"
	"dualsub/internal/services"
	"dualsub/internal/services/ffmpeg"
	"dualsub/internal/summary"
	"dualsub/internal/transcript"
	"dualsub/internal/translation"
)

// Stage names, as logged and recorded in the journal.
const (
	StageSource          = "source"
	StageWriteOriginal   = "write_original"
	StageTranslate       = "translate"
	StageWriteTranslated = "write_translated"
	StageMerge           = "merge"
	StageWriteBilingual  = "write_bilingual"
	StageSummary         = "summary"
	StageBurn            = "burn"
)

const lockFileName = ".dualsub.lock"

// ErrOutputLocked is returned when another run holds the output directory.
var ErrOutputLocked = errors.New("output directory is locked by another run")

// Transcriber turns the audio of a video into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, source, workDir, language string) ([]transcript.Segment, error)
}

// Encoder runs a burn-in command.
type Encoder interface {
	Run(ctx context.Context, cmd burnin.Command) error
}

// Runner executes pipeline runs against one configuration.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	journal     *journal.Store
	transcriber Transcriber
	translator  translation.Translator
	completer   summary.Completer
	encoder     Encoder
	orchOpts    []translation.Option
	now         func() time.Time
	newID       func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithJournal records runs, stages and artifacts in store.
func WithJournal(store *journal.Store) Option {
	return func(r *Runner) { r.journal = store }
}

// WithTranscriber replaces the WhisperX adapter.
func WithTranscriber(t Transcriber) Option {
	return func(r *Runner) { r.transcriber = t }
}

// WithTranslator replaces the configured translation provider.
func WithTranslator(t translation.Translator) Option {
	return func(r *Runner) { r.translator = t }
}

// WithCompleter replaces the configured summary client.
func WithCompleter(c summary.Completer) Option {
	return func(r *Runner) { r.completer = c }
}

// WithEncoder replaces the ffmpeg encoder.
func WithEncoder(e Encoder) Option {
	return func(r *Runner) { r.encoder = e }
}

// WithOrchestratorOptions passes options through to the translation
// orchestrator of every run.
func WithOrchestratorOptions(opts ...translation.Option) Option {
	return func(r *Runner) { r.orchOpts = append(r.orchOpts, opts...) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(r *Runner) {
		if next != nil {
			r.newID = next
		}
	}
}

// New builds a Runner. Collaborators not supplied as options are built from
// cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.translator == nil {
		r.translator = NewTranslator(cfg, r.logger)
	}
	if r.completer == nil {
		r.completer = NewCompleter(cfg, r.logger)
	}
	if r.transcriber == nil {
		r.transcriber = NewTranscriber(cfg, r.logger)
	}
	if r.encoder == nil {
		r.encoder = ffmpeg.NewEncoder(r.logger)
	}
	return r
}

type stage struct {
	name string
	run  func(ctx context.Context, logger *slog.Logger) error
}

// execute owns the lifecycle shared by every run: output lock, run id, run
// log, journal rows, and sequential stages. The first failing stage stops
// the run.
func (r *Runner) execute(ctx context.Context, meta journal.Run, stages []stage) (journal.Run, error) {
	outputDir := meta.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return meta, services.Wrap(services.ErrConfiguration, "run", "output dir", fmt.Sprintf("create %q", outputDir), err)
	}

	lock := flock.New(filepath.Join(outputDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return meta, services.Wrap(services.ErrConfiguration, "run", "lock", "acquire output lock", err)
	}
	if !ok {
		return meta, services.Wrap(services.ErrTransient, "run", "lock", outputDir, ErrOutputLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	meta.ID = r.newID()
	meta.Status = journal.StatusRunning
	meta.StartedAt = r.now().UTC()
	ctx = services.WithRunID(ctx, meta.ID)

	logger, closeLog := r.openRunLog(&meta)
	defer closeLog()
	runLogger := logging.WithContext(ctx, logger)

	if r.journal != nil {
		if err := r.journal.BeginRun(ctx, meta); err != nil {
			return meta, fmt.Errorf("journal: begin run: %w", err)
		}
	}
	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("command", meta.Command),
		logging.String("source", meta.SourcePath),
		logging.String("output_dir", meta.OutputDir),
	)

	var runErr error
	for _, st := range stages {
		meta.Stage = st.name
		if runErr = r.runStage(ctx, logger, meta.ID, st); runErr != nil {
			break
		}
	}

	meta.Status = journal.StatusForError(runErr)
	meta.FinishedAt = r.now().UTC()
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	if r.journal != nil {
		// Cancellation still gets a terminal row.
		if err := r.journal.FinishRun(context.WithoutCancel(ctx), meta.ID, runErr); err != nil {
			runLogger.Error("failed to record run result", logging.Error(err))
		}
	}

	if runErr != nil {
		logging.ErrorWithContext(runLogger, "run failed", "run_failure",
			logging.String("status", string(meta.Status)),
			logging.Error(runErr),
		)
		return meta, runErr
	}
	runLogger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("run_duration", meta.Duration(meta.FinishedAt)),
	)
	return meta, nil
}

func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, runID string, st stage) error {
	stageCtx := services.WithStage(ctx, st.name)
	stageLogger := logging.WithContext(stageCtx, logger)
	started := r.now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if r.journal != nil {
		if err := r.journal.SetStage(ctx, runID, st.name); err != nil {
			stageLogger.Warn("failed to record stage", logging.Error(err))
		}
	}

	if err := st.run(stageCtx, stageLogger); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted")
			return err
		}
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_message", strings.TrimSpace(err.Error())),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", r.now().Sub(started)),
	)
	return nil
}

// openRunLog tees the run's records into state_dir/logs/<run id>.log. Only
// journaled runs get a file; failures degrade to the base logger.
func (r *Runner) openRunLog(meta *journal.Run) (*slog.Logger, func()) {
	base := r.logger
	if r.journal == nil {
		return base, func() {}
	}
	dir := r.cfg.RunLogDir()
	logging.PruneLogs(base, dir, "*.log", r.cfg.Logging.RetentionDays, r.now())

	path := filepath.Join(dir, meta.ID+".log")
	file, err := logging.OpenLogFile(path)
	if err != nil {
		logging.WarnWithContext(base, "run log unavailable", "run_log_unavailable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is only logged to the console"),
		)
		return base, func() {}
	}
	meta.LogPath = path
	return logging.TeeLogger(base, logging.NewJSONFileHandler(file)), func() { _ = file.Close() }
}

func (r *Runner) recordArtifacts(ctx context.Context, logger *slog.Logger, arts ...artifactRow) {
	if r.journal == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	for _, a := range arts {
		row := journal.Artifact{
			RunID:    runID,
			Path:     a.Path,
			Kind:     a.Kind,
			Language: a.Language,
			Format:   a.Format,
			Bytes:    a.Bytes,
		}
		if err := r.journal.AddArtifact(ctx, row); err != nil {
			logger.Warn("failed to record artifact", logging.String("path", a.Path), logging.Error(err))
		}
	}
}

type artifactRow struct {
	Path     string
	Kind     string
	Language string
	Format   string
	Bytes    int64
}
