package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"dualsub/internal/services"
)

func TestTranscribeRunsExtractThenWhisperX(t *testing.T) {
	workDir := t.TempDir()
	svc := NewService(Config{Model: "small", VADMethod: VADMethodPyannote, HFToken: "hf"}, "", "", nil)

	var calls [][]string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		if name == UVXCommand {
			payload := `{"segments":[{"text":" Hi ","start":0.5,"end":1.25},{"text":"Bye","start":1.5,"end":2}]}`
			return os.WriteFile(filepath.Join(workDir, "talk.json"), []byte(payload), 0o644)
		}
		return nil
	})

	segments, err := svc.Transcribe(context.Background(), "/media/talk.mp4", workDir, "en-US")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 || segments[0].Text != " Hi " || segments[1].End != 2 {
		t.Fatalf("unexpected segments %+v", segments)
	}
	if len(calls) != 2 || calls[0][0] != FFmpegCommand || calls[1][0] != UVXCommand {
		t.Fatalf("unexpected call order %v", calls)
	}
	extract := strings.Join(calls[0], " ")
	if !strings.Contains(extract, "-map 0:a:0") || !strings.Contains(extract, "-ar 16000") {
		t.Fatalf("unexpected extract args %q", extract)
	}
	whisper := calls[1]
	for _, pair := range [][2]string{{"--model", "small"}, {"--language", "en"}, {"--vad_method", "pyannote"}, {"--hf_token", "hf"}, {"--device", "cpu"}} {
		idx := slices.Index(whisper, pair[0])
		if idx < 0 || idx+1 >= len(whisper) || whisper[idx+1] != pair[1] {
			t.Fatalf("expected %s %s in %v", pair[0], pair[1], whisper)
		}
	}
	if _, err := os.Stat(filepath.Join(workDir, "talk.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected extracted audio to be removed, stat err=%v", err)
	}
}

func TestTranscribeWrapsToolFailure(t *testing.T) {
	svc := NewService(Config{}, "", "", nil)
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), "/media/talk.mp4", t.TempDir(), "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscribeRequiresSource(t *testing.T) {
	svc := NewService(Config{}, "", "", nil)
	if _, err := svc.Transcribe(context.Background(), " ", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true}, "", "", nil)
	args := svc.buildArgs("a.wav", "/out", "auto")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--extra-index-url "+PypiIndexURL) || !strings.Contains(joined, "--device cuda") {
		t.Fatalf("unexpected args %q", joined)
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("auto language should not pass --language: %q", joined)
	}
	if !strings.Contains(joined, "--model "+DefaultModel) {
		t.Fatalf("expected default model: %q", joined)
	}
}

func TestConfigVADArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default silero", Config{}, "--vad_method silero"},
		{"pyannote with token", Config{VADMethod: VADMethodPyannote, HFToken: "hf"}, "--vad_method pyannote --hf_token hf"},
		{"pyannote without token", Config{VADMethod: VADMethodPyannote}, "--vad_method pyannote"},
		{"silero ignores token", Config{HFToken: "hf"}, "--vad_method silero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(tt.cfg.vadArgs(), " "); got != tt.want {
				t.Fatalf("vadArgs = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildArgsCPUUsesSentenceSegments(t *testing.T) {
	args := NewService(Config{Model: "large-v3"}, "", "", nil).buildArgs("a.wav", "/out", "fr")
	joined := strings.Join(args, " ")
	for _, want := range []string{"--index-url " + PypiIndexURL + " whisperx a.wav", "--segment_resolution sentence", "--device cpu --compute_type float32", "--language fr"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if strings.Contains(joined, "--extra-index-url") {
		t.Fatalf("cpu run should not add the cuda index: %q", joined)
	}
}
