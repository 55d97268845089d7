package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dualsub/internal/artifacts"
	"dualsub/internal/bilingual"
	"dualsub/internal/burnin"
	"dualsub/internal/cue"
	"dualsub/internal/journal"
	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/services"
	"dualsub/internal/subformat"
	"dualsub/internal/summary"
	"dualsub/internal/transcript"
	"dualsub/internal/translation"
)

// Request describes one process run.
type Request struct {
	// Source is a video to transcribe or an existing subtitle file.
	Source string
	// Video is burned when Source is a subtitle file. A video Source is its
	// own Video.
	Video string
	// OutputDir defaults to paths.output_dir, then to the source directory.
	OutputDir string
	// SourceLanguage and TargetLanguage override [translation].
	SourceLanguage string
	TargetLanguage string
	// Burn overrides burn.enabled when non-nil.
	Burn *bool
	// BurnKind pins the burned subtitle kind instead of burn.kind_preference.
	BurnKind burnin.Kind
	// Summary also writes base.summary.md.
	Summary bool
}

// Result reports what a run produced. Artifacts of completed stages are
// listed even when Run returns an error.
type Result struct {
	RunID           string
	LogPath         string
	Base            string
	OutputDir       string
	Original        cue.Document
	Translated      cue.Document
	Bilingual       cue.Document
	TranscriptStats *transcript.Stats
	Artifacts       []artifacts.Artifact
	BurnedPath      string
	BurnCommand     string
}

type processState struct {
	result    *Result
	store     *artifacts.Store
	isVideo   bool
	srcLang   string
	target    string
	video     string
	burn      bool
	formats   []cue.Format
	sourceAbs string
}

// Run executes source, write_original, translate, write_translated, merge,
// write_bilingual, then summary and burn when requested.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	st, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	stages := []stage{
		{StageSource, st.loadSource(r)},
		{StageWriteOriginal, st.writeStage(r, burnin.KindOriginal, func() cue.Document { return st.result.Original })},
		{StageTranslate, st.translateStage(r)},
		{StageWriteTranslated, st.writeStage(r, burnin.KindTranslated, func() cue.Document { return st.result.Translated })},
		{StageMerge, st.mergeStage(r)},
		{StageWriteBilingual, st.writeStage(r, burnin.KindBilingual, func() cue.Document { return st.result.Bilingual })},
	}
	if req.Summary {
		stages = append(stages, stage{StageSummary, st.summaryStage(r)})
	}
	if st.burn {
		stages = append(stages, stage{StageBurn, func(ctx context.Context, logger *slog.Logger) error {
			burned, cmd, err := r.burn(ctx, logger, st.store, st.result.Base, st.video, req.BurnKind)
			if cmd != "" {
				st.result.BurnCommand = cmd
			}
			if err != nil {
				return err
			}
			st.result.BurnedPath = burned.Path
			st.result.Artifacts = append(st.result.Artifacts, burned)
			return nil
		}})
	}

	meta, err := r.execute(ctx, journal.Run{
		Command:    "process",
		SourcePath: st.sourceAbs,
		OutputDir:  st.store.Dir(),
		TargetLang: st.target,
	}, stages)
	st.result.RunID = meta.ID
	st.result.LogPath = meta.LogPath
	return st.result, err
}

func (r *Runner) prepare(req Request) (*processState, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, StageSource, "input", "source path required", nil)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageSource, "input", "resolve source path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, StageSource, "input", abs, err)
		}
		return nil, services.Wrap(services.ErrValidation, StageSource, "input", "stat source", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, StageSource, "input", abs+" is a directory", nil)
	}

	target, err := r.targetLanguage(req.TargetLanguage)
	if err != nil {
		return nil, err
	}
	srcLang := firstNonEmpty(req.SourceLanguage, r.cfg.Translation.SourceLanguage)

	_, fmtErr := subformat.FormatFromPath(abs)
	isVideo := fmtErr != nil

	video := strings.TrimSpace(req.Video)
	if isVideo {
		video = abs
	}
	// burn.enabled alone does not apply to subtitle sources without a video.
	burn := r.cfg.Burn.Enabled && video != ""
	if req.Burn != nil {
		burn = *req.Burn
		if burn && video == "" {
			return nil, services.Wrap(services.ErrValidation, StageBurn, "input", "burn-in needs a video when the source is a subtitle file", nil)
		}
	}

	formats := r.cfg.OutputFormats()
	if len(formats) == 0 {
		formats = []cue.Format{cue.FormatSRT}
	}

	outputDir, err := filepath.Abs(firstNonEmpty(req.OutputDir, r.cfg.Paths.OutputDir, filepath.Dir(abs)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageSource, "output dir", "resolve output path", err)
	}
	base := artifacts.BaseName(abs)
	return &processState{
		result:    &Result{Base: base, OutputDir: outputDir},
		store:     artifacts.NewStore(nil, outputDir),
		isVideo:   isVideo,
		srcLang:   srcLang,
		target:    target,
		video:     video,
		burn:      burn,
		formats:   formats,
		sourceAbs: abs,
	}, nil
}

func (r *Runner) targetLanguage(requested string) (string, error) {
	target, err := language.Canonical(firstNonEmpty(requested, r.cfg.Translation.TargetLanguage))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, StageTranslate, "target language", "", err)
	}
	if !language.IsFileMarker(target) {
		return "", services.Wrap(services.ErrValidation, StageTranslate, "target language",
			fmt.Sprintf("%q cannot be used in artifact names (want xx or xx-YY)", target), nil)
	}
	return target, nil
}

func (st *processState) loadSource(r *Runner) func(context.Context, *slog.Logger) error {
	return func(ctx context.Context, logger *slog.Logger) error {
		if !st.isVideo {
			doc, err := artifacts.ReadDocument(st.store.Fs(), st.sourceAbs, subformat.WithLanguage(st.srcLang))
			if err != nil {
				return services.Wrap(services.ErrValidation, StageSource, "parse", filepath.Base(st.sourceAbs), err)
			}
			st.result.Original = doc
			logger.Info("subtitle source loaded",
				logging.String("format", string(doc.Format())),
				logging.Int("cues", doc.Len()),
			)
			return nil
		}

		lang := firstNonEmpty(r.cfg.Transcription.Language, st.srcLang)
		segments, err := r.transcriber.Transcribe(ctx, st.sourceAbs, r.cfg.Paths.WorkDir, lang)
		if err != nil {
			return err
		}
		doc, stats, err := transcript.Build(segments, cue.FormatSRT, st.srcLang)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, StageSource, "build transcript", "", err)
		}
		st.result.Original = doc
		st.result.TranscriptStats = &stats
		if stats.Dropped() > 0 {
			logging.WarnWithContext(logger, "transcript segments dropped", "transcript_segments_dropped",
				logging.Int("dropped_empty", stats.DroppedEmpty),
				logging.Int("dropped_non_forward", stats.DroppedNonForward),
				logging.Int("kept", stats.Kept),
				logging.String(logging.FieldImpact, "those segments have no subtitle"),
			)
		}
		logger.Info("transcript built", logging.Int("cues", doc.Len()))
		return nil
	}
}

func (st *processState) writeStage(r *Runner, kind burnin.Kind, doc func() cue.Document) func(context.Context, *slog.Logger) error {
	return func(ctx context.Context, logger *slog.Logger) error {
		stageName, _ := services.StageFromContext(ctx)
		for _, format := range st.formats {
			path, err := st.store.Path(st.result.Base, kind, doc().Language(), format)
			if err != nil {
				return services.Wrap(services.ErrValidation, stageName, "name", "", err)
			}
			// The source subtitle file itself is never rewritten.
			if kind == burnin.KindOriginal && filepath.Clean(path) == st.sourceAbs {
				logger.Debug("skipping source file", logging.String("path", path))
				continue
			}
			a, err := st.store.WriteDocument(st.result.Base, kind, doc(), format)
			if err != nil {
				return services.Wrap(services.ErrTransient, stageName, "write", path, err)
			}
			st.result.Artifacts = append(st.result.Artifacts, a)
			r.recordArtifacts(ctx, logger, rowFor(a))
			logger.Info("artifact written",
				logging.String(logging.FieldEventType, "artifact_written"),
				logging.String("path", a.Path),
				logging.Int("bytes", a.Bytes),
			)
		}
		return nil
	}
}

func (st *processState) translateStage(r *Runner) func(context.Context, *slog.Logger) error {
	return func(ctx context.Context, logger *slog.Logger) error {
		sampler := logging.NewProgressSampler(25)
		opts := append([]translation.Option{
			translation.WithLogger(logger),
			translation.WithProgress(func(done, total int) {
				if sampler.ShouldLog(done, total) {
					logger.Info("translation progress",
						logging.Int("batches_done", done),
						logging.Int("batches", total),
					)
				}
			}),
		}, r.orchOpts...)
		orch := translation.New(r.translator, OrchestratorOptions(r.cfg), opts...)
		translated, err := orch.Translate(ctx, st.result.Original, st.target)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return services.Wrap(translationMarker(err), StageTranslate, "translate", st.target, err)
		}
		st.result.Translated = translated
		return nil
	}
}

func translationMarker(err error) error {
	var svcErr *translation.ServiceError
	if errors.As(err, &svcErr) && svcErr.Permanent() {
		return services.ErrExternalTool
	}
	return services.ErrTransient
}

func (st *processState) mergeStage(r *Runner) func(context.Context, *slog.Logger) error {
	return func(_ context.Context, logger *slog.Logger) error {
		merged, err := bilingual.Merge(st.result.Original, st.result.Translated, bilingual.Options{Order: r.cfg.BilingualOrder()})
		if err != nil {
			return services.Wrap(services.ErrValidation, StageMerge, "merge", "", err)
		}
		st.result.Bilingual = merged
		logger.Info("bilingual document merged",
			logging.Int("cues", merged.Len()),
			logging.String("order", string(r.cfg.BilingualOrder())),
		)
		return nil
	}
}

func (st *processState) summaryStage(r *Runner) func(context.Context, *slog.Logger) error {
	return func(ctx context.Context, logger *slog.Logger) error {
		res, err := summary.Summarize(ctx, r.completer, st.result.Original, summary.Options{Language: st.target})
		if err != nil {
			if errors.Is(err, summary.ErrEmptyTranscript) {
				return services.Wrap(services.ErrValidation, StageSummary, "summarize", "", err)
			}
			return services.Wrap(services.ErrExternalTool, StageSummary, "summarize", "", err)
		}
		if res.Truncated {
			logging.WarnWithContext(logger, "transcript truncated for summary", "summary_truncated",
				logging.Int("chars", res.Chars),
				logging.String(logging.FieldImpact, "the end of the video is not summarized"),
			)
		}
		a, err := st.store.WriteSummary(st.result.Base, res.Markdown)
		if err != nil {
			return services.Wrap(services.ErrTransient, StageSummary, "write", "", err)
		}
		st.result.Artifacts = append(st.result.Artifacts, a)
		r.recordArtifacts(ctx, logger, rowFor(a))
		return nil
	}
}

func rowFor(a artifacts.Artifact) artifactRow {
	return artifactRow{
		Path:     a.Path,
		Kind:     string(a.Kind),
		Language: a.Language,
		Format:   string(a.Format),
		Bytes:    int64(a.Bytes),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
