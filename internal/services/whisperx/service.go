package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/services"
	"dualsub/internal/transcript"
)

// CommandRunner executes an external program.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	uvxBinary     string
	commandRunner CommandRunner
	logger        *slog.Logger
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary, uvxBinary string, logger *slog.Logger) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
		uvxBinary:    uvxBinary,
		logger:       logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.model()
}

// Transcribe extracts the first audio track of source into workDir, runs
// WhisperX on it, and returns the recognized segments in order.
func (s *Service) Transcribe(ctx context.Context, source, workDir, language string) ([]transcript.Segment, error) {
	if strings.TrimSpace(source) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "input", "source path required", nil)
	}
	if workDir == "" {
		workDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "work dir", "ensure work dir", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	audioPath := filepath.Join(workDir, baseName+".wav")
	if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(source, audioPath)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "extract audio", "ffmpeg failed", err)
	}
	if !s.cfg.KeepAudio {
		defer os.Remove(audioPath)
	}

	s.logger.Info("whisperx transcription started",
		logging.String(logging.FieldEventType, "transcription_started"),
		logging.String("model", s.Model()),
		logging.Bool("cuda", s.cfg.CUDAEnabled),
		logging.String("source", source),
	)
	if err := s.run(ctx, s.uvxBinary, s.buildArgs(audioPath, workDir, language)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "transcription failed", err)
	}

	jsonPath := filepath.Join(workDir, baseName+".json")
	raw, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "load output", "read whisperx json", err)
	}
	segments := make([]transcript.Segment, 0, len(raw))
	for _, seg := range raw {
		segments = append(segments, transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	s.logger.Info("whisperx transcription finished",
		logging.String(logging.FieldEventType, "transcription_finished"),
		logging.Int("segments", len(segments)),
	)
	return segments, nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildExtractArgs produces the ffmpeg arguments for a mono 16 kHz WAV of the
// first audio stream.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := s.cfg.indexArgs()
	args = append(args, "whisperx", source, "--model", s.Model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)
	args = append(args, s.cfg.vadArgs()...)
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	return append(args, s.cfg.deviceArgs()...)
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}
