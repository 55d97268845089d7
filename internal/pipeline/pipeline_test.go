package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"dualsub/internal/burnin"
	"dualsub/internal/config"
	"dualsub/internal/journal"
	"dualsub/internal/pipeline"
	"dualsub/internal/services"
	"dualsub/internal/testsupport"
	"dualsub/internal/transcript"
	"dualsub/internal/translation"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHi\n\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nBye\n\n" +
	"3\n00:00:05,000 --> 00:00:06,000\nEnd\n"

func prefixTranslator() translation.Translator {
	return translation.TranslatorFunc(func(_ context.Context, texts []string, _ string) ([]string, error) {
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = "T:" + text
		}
		return out, nil
	})
}

type fakeTranscriber struct {
	segments []transcript.Segment
	err      error
	source   string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, source, _, _ string) ([]transcript.Segment, error) {
	f.source = source
	return f.segments, f.err
}

type fakeEncoder struct {
	mu       sync.Mutex
	commands []burnin.Command
	err      error
}

// Run writes a placeholder to the command's output path.
func (f *fakeEncoder) Run(_ context.Context, cmd burnin.Command) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	out := cmd.Args[len(cmd.Args)-1]
	return os.WriteFile(out, []byte("video"), 0o644)
}

type fakeCompleter struct {
	reply string
}

func (f fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.reply, nil
}

func newRunner(t *testing.T, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Runner, *journal.Store) {
	t.Helper()
	store := testsupport.MustOpenJournal(t, cfg)
	base := []pipeline.Option{
		pipeline.WithJournal(store),
		pipeline.WithTranslator(prefixTranslator()),
		pipeline.WithTranscriber(&fakeTranscriber{}),
		pipeline.WithEncoder(&fakeEncoder{}),
		pipeline.WithCompleter(fakeCompleter{reply: "# Summary"}),
		pipeline.WithOrchestratorOptions(translation.WithSleeper(func(context.Context, time.Duration) error { return nil })),
	}
	return pipeline.New(cfg, append(base, opts...)...), store
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func boolPtr(v bool) *bool { return &v }

func TestRunSubtitleSourceWritesAllKinds(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormats("srt", "vtt"))
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.srt")
	testsupport.WriteText(t, source, sampleSRT)
	runner, store := newRunner(t, cfg)

	res, err := runner.Run(context.Background(), pipeline.Request{Source: source})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := cfg.Paths.OutputDir
	for _, name := range []string{
		"movie.srt", "movie.vtt",
		"movie.zh-CN.srt", "movie.zh-CN.vtt",
		"movie.bilingual.srt", "movie.bilingual.vtt",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}
	if len(res.Artifacts) != 6 {
		t.Fatalf("artifacts = %d, want 6", len(res.Artifacts))
	}
	bi := readFile(t, filepath.Join(out, "movie.bilingual.srt"))
	if !strings.Contains(bi, "Hi\nT:Hi") || !strings.Contains(bi, "End\nT:End") {
		t.Fatalf("bilingual srt missing paired lines:\n%s", bi)
	}
	if res.Translated.Language() != "zh-CN" {
		t.Fatalf("translated language = %q", res.Translated.Language())
	}

	run, err := store.GetRun(context.Background(), res.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != journal.StatusSucceeded || run.Stage != pipeline.StageWriteBilingual {
		t.Fatalf("run = %+v", run)
	}
	rows, err := store.Artifacts(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("Artifacts: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("journal artifacts = %d, want 6", len(rows))
	}
	if res.LogPath == "" {
		t.Fatal("expected run log path")
	}
	if !strings.Contains(readFile(t, res.LogPath), `"event_type":"stage_complete"`) {
		t.Fatal("run log missing stage events")
	}
}

func TestRunVideoSourceTranscribesAndBurns(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormats("srt"))
	video := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.mkv")
	testsupport.WriteFile(t, video, 64)
	stt := &fakeTranscriber{segments: []transcript.Segment{
		{Start: 1, End: 2, Text: "Hi"},
		{Start: 3, End: 3, Text: "zero length"},
		{Start: 4, End: 5, Text: "End"},
	}}
	enc := &fakeEncoder{}
	runner, store := newRunner(t, cfg, pipeline.WithTranscriber(stt), pipeline.WithEncoder(enc))

	res, err := runner.Run(context.Background(), pipeline.Request{Source: video, Burn: boolPtr(true)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stt.source != video {
		t.Fatalf("transcriber source = %q", stt.source)
	}
	if res.TranscriptStats == nil || res.TranscriptStats.Kept != 2 || res.TranscriptStats.Dropped() != 1 {
		t.Fatalf("stats = %+v", res.TranscriptStats)
	}
	want := filepath.Join(cfg.Paths.OutputDir, "movie.bilingual.hardcoded.mkv")
	if res.BurnedPath != want {
		t.Fatalf("burned path = %q, want %q", res.BurnedPath, want)
	}
	if readFile(t, want) != "video" {
		t.Fatal("burned file not moved into place")
	}
	if len(enc.commands) != 1 {
		t.Fatalf("encoder calls = %d", len(enc.commands))
	}
	if !strings.Contains(strings.Join(enc.commands[0].Args, " "), "movie.bilingual.srt") {
		t.Fatalf("encoder did not burn the bilingual file: %v", enc.commands[0].Args)
	}
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not empty: %v", entries)
	}
	rows, err := store.Artifacts(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("Artifacts: %v", err)
	}
	if got := rows[len(rows)-1].Kind; got != string(pipeline.KindHardcoded) {
		t.Fatalf("last artifact kind = %q", got)
	}
}

func TestRunTranslationFailureKeepsOriginals(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormats("srt"))
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.srt")
	testsupport.WriteText(t, source, sampleSRT)
	failing := translation.TranslatorFunc(func(context.Context, []string, string) ([]string, error) {
		return nil, translation.Permanent(errors.New("401 invalid key"))
	})
	runner, store := newRunner(t, cfg, pipeline.WithTranslator(failing))

	res, err := runner.Run(context.Background(), pipeline.Request{Source: source})
	if err == nil {
		t.Fatal("expected translation failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	var svcErr *translation.ServiceError
	if !errors.As(err, &svcErr) || !svcErr.Permanent() {
		t.Fatalf("expected permanent ServiceError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "movie.srt")); err != nil {
		t.Fatalf("original artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "movie.zh-CN.srt")); !os.IsNotExist(err) {
		t.Fatalf("translated artifact should not exist: %v", err)
	}

	run, err := store.GetRun(context.Background(), res.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != journal.StatusFailed || run.Stage != pipeline.StageTranslate {
		t.Fatalf("run = %+v", run)
	}
	rows, _ := store.Artifacts(context.Background(), res.RunID)
	if len(rows) != 1 {
		t.Fatalf("journal artifacts = %d, want 1", len(rows))
	}
}

func TestRunRejectsInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.srt")
	testsupport.WriteText(t, source, sampleSRT)
	runner, _ := newRunner(t, cfg)

	tests := []struct {
		name   string
		req    pipeline.Request
		marker error
	}{
		{"missing source", pipeline.Request{Source: filepath.Join(testsupport.BaseDir(cfg), "absent.srt")}, services.ErrNotFound},
		{"empty source", pipeline.Request{}, services.ErrValidation},
		{"unusable target", pipeline.Request{Source: source, TargetLanguage: "zh-Hant-TW"}, services.ErrValidation},
		{"burn without video", pipeline.Request{Source: source, Burn: boolPtr(true)}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Run(context.Background(), tt.req)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if services.ExitCode(err) != 2 {
				t.Fatalf("exit code = %d, want 2", services.ExitCode(err))
			}
		})
	}
}

func TestRunParseFailureIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "broken.srt")
	testsupport.WriteText(t, source, "1\nnot a timing line\nHi\n")
	runner, store := newRunner(t, cfg)

	res, err := runner.Run(context.Background(), pipeline.Request{Source: source})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	run, _ := store.GetRun(context.Background(), res.RunID)
	if run == nil || run.Status != journal.StatusRejected {
		t.Fatalf("run = %+v", run)
	}
}

func TestRunFailsWhenOutputLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.srt")
	testsupport.WriteText(t, source, sampleSRT)
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(filepath.Join(cfg.Paths.OutputDir, ".dualsub.lock"))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	runner, _ := newRunner(t, cfg)
	_, err := runner.Run(context.Background(), pipeline.Request{Source: source})
	if !errors.Is(err, pipeline.ErrOutputLocked) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestRunWritesSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormats("srt"))
	source := filepath.Join(testsupport.BaseDir(cfg), "in", "movie.srt")
	testsupport.WriteText(t, source, sampleSRT)
	runner, _ := newRunner(t, cfg, pipeline.WithCompleter(fakeCompleter{reply: "```markdown\n# Plot\nThey leave.\n```"}))

	if _, err := runner.Run(context.Background(), pipeline.Request{Source: source, Summary: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := readFile(t, filepath.Join(cfg.Paths.OutputDir, "movie.summary.md"))
	if got != "# Plot\nThey leave.\n" {
		t.Fatalf("summary = %q", got)
	}
}

func TestBurnDryRunFollowsPreference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := cfg.Paths.OutputDir
	video := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, video, 16)
	testsupport.WriteText(t, filepath.Join(dir, "movie.srt"), sampleSRT)
	testsupport.WriteText(t, filepath.Join(dir, "movie.zh-CN.srt"), sampleSRT)
	enc := &fakeEncoder{}
	runner, store := newRunner(t, cfg, pipeline.WithEncoder(enc))

	res, err := runner.Burn(context.Background(), pipeline.BurnRequest{Video: video, DryRun: true})
	if err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if res.Subtitle.Kind != burnin.KindTranslated || res.Subtitle.Language != "zh-CN" {
		t.Fatalf("selected %+v", res.Subtitle)
	}
	if res.Path != filepath.Join(dir, "movie.zh-CN.hardcoded.mkv") {
		t.Fatalf("path = %q", res.Path)
	}
	if !strings.Contains(res.Command, "movie.zh-CN.srt") {
		t.Fatalf("command = %q", res.Command)
	}
	if len(enc.commands) != 0 {
		t.Fatal("dry run must not encode")
	}
	runs, _ := store.ListRuns(context.Background(), 10)
	if len(runs) != 0 {
		t.Fatalf("dry run journaled %d runs", len(runs))
	}
}

func TestBurnRequestedKindMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := cfg.Paths.OutputDir
	video := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, video, 16)
	testsupport.WriteText(t, filepath.Join(dir, "movie.srt"), sampleSRT)
	testsupport.WriteText(t, filepath.Join(dir, "movie.zh-CN.srt"), sampleSRT)
	runner, store := newRunner(t, cfg)

	res, err := runner.Burn(context.Background(), pipeline.BurnRequest{Video: video, Kind: burnin.KindBilingual})
	var selErr *burnin.SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
	run, _ := store.GetRun(context.Background(), res.RunID)
	if run == nil || run.Status != journal.StatusRejected || run.Command != "burn" {
		t.Fatalf("run = %+v", run)
	}
}

func TestBurnEncoderFailureLeavesNoOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := cfg.Paths.OutputDir
	video := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, video, 16)
	testsupport.WriteText(t, filepath.Join(dir, "movie.srt"), sampleSRT)
	enc := &fakeEncoder{err: errors.New("encoder exited with status 1")}
	runner, _ := newRunner(t, cfg, pipeline.WithEncoder(enc))

	_, err := runner.Burn(context.Background(), pipeline.BurnRequest{Video: video})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "movie.original.hardcoded.mkv")); !os.IsNotExist(err) {
		t.Fatalf("unexpected output: %v", err)
	}
}

func TestOrchestratorOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Translation.BatchMaxChars = 500
	cfg.Translation.Workers = 2
	cfg.Translation.BackoffBaseMillis = 250
	opts := pipeline.OrchestratorOptions(cfg)
	if opts.Budget.MaxChars != 500 || opts.Workers != 2 || opts.BackoffBase != 250*time.Millisecond {
		t.Fatalf("options = %+v", opts)
	}
	if opts.AttemptTimeout != time.Duration(cfg.Translation.AttemptTimeoutSeconds)*time.Second {
		t.Fatalf("attempt timeout = %v", opts.AttemptTimeout)
	}
}
