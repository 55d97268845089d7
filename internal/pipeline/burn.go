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
	"dualsub/internal/burnin"
	"dualsub/internal/fileutil"
	"dualsub/internal/journal"
	"dualsub/internal/logging"
	"dualsub/internal/services"
)

// KindHardcoded tags burned videos in results and the journal.
const KindHardcoded burnin.Kind = "hardcoded"

// BurnRequest burns an existing subtitle artifact into a video.
type BurnRequest struct {
	Video string
	// SubtitleDir holds the artifacts and receives the output. It defaults
	// to paths.output_dir, then to the video directory.
	SubtitleDir string
	// Kind pins the subtitle kind; empty walks burn.kind_preference.
	Kind burnin.Kind
	// DryRun plans the command without encoding or journaling.
	DryRun bool
}

// BurnResult reports a burn run.
type BurnResult struct {
	RunID     string
	LogPath   string
	Path      string
	Subtitle  burnin.Candidate
	Command   string
	DryRun    bool
	Artifacts []artifacts.Artifact
}

type burnPlan struct {
	candidate burnin.Candidate
	command   burnin.Command
	partial   string
	final     string
}

// Burn selects a subtitle next to req.Video and hardcodes it.
func (r *Runner) Burn(ctx context.Context, req BurnRequest) (*BurnResult, error) {
	video := strings.TrimSpace(req.Video)
	if video == "" {
		return nil, services.Wrap(services.ErrValidation, StageBurn, "input", "video path required", nil)
	}
	video, err := filepath.Abs(video)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageBurn, "input", "resolve video path", err)
	}
	if _, err := os.Stat(video); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, StageBurn, "input", video, err)
		}
		return nil, services.Wrap(services.ErrValidation, StageBurn, "input", "stat video", err)
	}
	dir, err := filepath.Abs(firstNonEmpty(req.SubtitleDir, r.cfg.Paths.OutputDir, filepath.Dir(video)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageBurn, "input", "resolve subtitle dir", err)
	}
	store := artifacts.NewStore(nil, dir)
	base := artifacts.BaseName(video)

	if req.DryRun {
		plan, err := r.planBurn(store, base, video, req.Kind, "")
		if err != nil {
			return nil, err
		}
		return &BurnResult{Path: plan.final, Subtitle: plan.candidate, Command: plan.command.String(), DryRun: true}, nil
	}

	result := &BurnResult{}
	meta, err := r.execute(ctx, journal.Run{
		Command:    "burn",
		SourcePath: video,
		OutputDir:  dir,
	}, []stage{{StageBurn, func(ctx context.Context, logger *slog.Logger) error {
		a, cmd, err := r.burn(ctx, logger, store, base, video, req.Kind)
		result.Command = cmd
		if err != nil {
			return err
		}
		result.Path = a.Path
		result.Artifacts = append(result.Artifacts, a)
		return nil
	}}})
	result.RunID = meta.ID
	result.LogPath = meta.LogPath
	return result, err
}

// planBurn picks the subtitle and builds the encoder command. The encoder
// writes to partial; an empty partial means the final path.
func (r *Runner) planBurn(store *artifacts.Store, base, video string, kind burnin.Kind, partial string) (burnPlan, error) {
	candidates, err := store.Candidates(base)
	if err != nil {
		return burnPlan{}, services.Wrap(services.ErrTransient, StageBurn, "list subtitles", store.Dir(), err)
	}
	var chosen burnin.Candidate
	if kind != "" {
		chosen, err = burnin.Select(candidates, kind)
	} else {
		chosen, err = burnin.SelectPreferred(candidates, r.cfg.KindPreference())
	}
	if err != nil {
		return burnPlan{}, services.Wrap(services.ErrNotFound, StageBurn, "select subtitle", "", err)
	}

	style, err := burnin.NewStyleSpec(r.cfg.StyleOptions())
	if err != nil {
		return burnPlan{}, services.Wrap(services.ErrConfiguration, StageBurn, "style", "", err)
	}
	named, err := burnin.OutputPath(video, chosen.Marker())
	if err != nil {
		return burnPlan{}, services.Wrap(services.ErrValidation, StageBurn, "output name", "", err)
	}
	final := filepath.Join(store.Dir(), filepath.Base(named))
	if partial == "" {
		partial = final
	}
	cmd, err := burnin.BuildCommand(burnin.Request{
		VideoPath:    video,
		SubtitlePath: chosen.Path,
		OutputPath:   partial,
		Style:        style,
		Encode:       r.cfg.EncodeSettings(),
	})
	if err != nil {
		return burnPlan{}, services.Wrap(services.ErrValidation, StageBurn, "build command", "", err)
	}
	return burnPlan{candidate: chosen, command: cmd, partial: partial, final: final}, nil
}

// burn encodes into the work directory and then moves the finished file next
// to the subtitles, so a failed encode never leaves a partial output behind.
func (r *Runner) burn(ctx context.Context, logger *slog.Logger, store *artifacts.Store, base, video string, kind burnin.Kind) (artifacts.Artifact, string, error) {
	runID, _ := services.RunIDFromContext(ctx)
	workDir := firstNonEmpty(r.cfg.Paths.WorkDir, store.Dir())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return artifacts.Artifact{}, "", services.Wrap(services.ErrConfiguration, StageBurn, "work dir", workDir, err)
	}
	// ffmpeg picks the container from the extension.
	partial := filepath.Join(workDir, fmt.Sprintf("%s.partial%s", runID, filepath.Ext(video)))

	plan, err := r.planBurn(store, base, video, kind, partial)
	if err != nil {
		return artifacts.Artifact{}, "", err
	}
	cmdline := plan.command.String()
	logger.Info("burn-in started",
		logging.String(logging.FieldEventType, "burn_started"),
		logging.String("subtitle", plan.candidate.Path),
		logging.String("subtitle_kind", string(plan.candidate.Kind)),
		logging.String("command", cmdline),
	)

	if err := r.encoder.Run(ctx, plan.command); err != nil {
		_ = os.Remove(plan.partial)
		if errors.Is(err, context.Canceled) {
			return artifacts.Artifact{}, cmdline, err
		}
		return artifacts.Artifact{}, cmdline, services.Wrap(services.ErrExternalTool, StageBurn, "encode", "", err)
	}
	if err := fileutil.MoveFile(store.Fs(), plan.partial, plan.final); err != nil {
		return artifacts.Artifact{}, cmdline, services.Wrap(services.ErrTransient, StageBurn, "move output", plan.final, err)
	}

	var size int
	if info, err := store.Fs().Stat(plan.final); err == nil {
		size = int(info.Size())
	}
	a := artifacts.Artifact{Path: plan.final, Kind: KindHardcoded, Language: plan.candidate.Language, Bytes: size}
	r.recordArtifacts(ctx, logger, rowFor(a))
	logger.Info("burn-in finished",
		logging.String(logging.FieldEventType, "burn_finished"),
		logging.String("output", plan.final),
	)
	return a, cmdline, nil
}
