package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/services"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[translation]\nworkers = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "translation.workers") {
		t.Fatalf("expected workers validation error, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	out, _, err := runCLI(t, []string{"convert", input, "--to", "vtt"}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	target := filepath.Join(env.inputDir, "movie.vtt")
	requireContains(t, out, "Wrote "+target+" (2 cues)")
	vtt := readFile(t, target)
	requireContains(t, vtt, "WEBVTT")
	requireContains(t, vtt, "00:00:03.000 --> 00:00:04.500")

	_, stderr, err := runCLI(t, []string{"convert", input, "--to", "txt"}, env.configPath)
	if err != nil {
		t.Fatalf("convert txt: %v", err)
	}
	requireContains(t, stderr, "drops cue timing")
	if got := readFile(t, filepath.Join(env.inputDir, "movie.txt")); got != "Hi\n\nBye\n" {
		t.Fatalf("txt = %q", got)
	}
}

func TestConvertSparseSRTToVTTKeepsIndices(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "sparse.srt", "1\n00:00:01,000 --> 00:00:02,000\nA\n\n3\n00:00:03,000 --> 00:00:04,000\nB\n")

	if _, _, err := runCLI(t, []string{"convert", input, "--to", "vtt"}, env.configPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	vtt := readFile(t, filepath.Join(env.inputDir, "sparse.vtt"))
	requireContains(t, vtt, "\n3\n00:00:03.000 --> 00:00:04.000\nB\n")
}

func TestConvertErrorsAreRejections(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)
	broken := env.writeInput(t, "broken.srt", "1\n00:00:01,000 --> later\nHi\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"overwrite input", []string{"convert", input, "--to", "srt"}, "overwrite the input"},
		{"missing file", []string{"convert", filepath.Join(env.inputDir, "nope.srt"), "--to", "vtt"}, "not found"},
		{"parse failure", []string{"convert", broken, "--to", "vtt"}, "line 2"},
		{"unknown format", []string{"convert", input, "--to", "ass"}, "validation error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			requireContains(t, err.Error(), tt.want)
			if code := services.ExitCode(err); code != 2 {
				t.Fatalf("exit code = %d, want 2 (%v)", code, err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	out, _, err := runCLI(t, []string{"inspect", input, "--json"}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var view inspectOutput
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if view.Cues != 2 || view.Format != "srt" || len(view.Items) != 2 {
		t.Fatalf("view = %+v", view)
	}
	if view.Start != "00:00:01.000" || view.End != "00:00:04.500" || view.Items[1].Text != "Bye" {
		t.Fatalf("view = %+v", view)
	}

	out, _, err = runCLI(t, []string{"inspect", input, "--limit", "1"}, "")
	if err != nil {
		t.Fatalf("inspect table: %v", err)
	}
	requireContains(t, out, "Cues:   2")
	requireContains(t, out, "Hi")
	requireContains(t, out, "... 1 more cues")
}

func TestInspectJSONKeepsMarkup(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "styled.srt", "1\n00:00:01,000 --> 00:00:02,000\n<i>Tom & Jerry</i>\n")

	out, _, err := runCLI(t, []string{"inspect", input, "--json"}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, `"<i>Tom & Jerry</i>"`)
}

func TestMerge(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.writeInput(t, "movie.srt", sampleSRT)
	translated := env.writeInput(t, "movie.es.srt",
		"1\n00:00:01,000 --> 00:00:02,000\nHola\n\n2\n00:00:03,000 --> 00:00:04,500\nAdiós\n")

	out, _, err := runCLI(t, []string{"merge", original, translated, "--order", "translated_first"}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	target := filepath.Join(env.inputDir, "movie.bilingual.srt")
	requireContains(t, out, target)
	merged := readFile(t, target)
	requireContains(t, merged, "Hola\nHi")
	requireContains(t, merged, "Adiós\nBye")

	short := env.writeInput(t, "short.srt", "1\n00:00:01,000 --> 00:00:02,000\nHola\n")
	_, _, err = runCLI(t, []string{"merge", original, short, "-o", filepath.Join(env.inputDir, "x.srt")}, env.configPath)
	if err == nil || services.ExitCode(err) != 2 {
		t.Fatalf("expected alignment rejection, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	out, _, err := runCLI(t, []string{"translate", input, "--to", "fr"}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	target := filepath.Join(env.cfg.Paths.OutputDir, "movie.fr.srt")
	requireContains(t, out, "Wrote "+target)
	translated := readFile(t, target)
	requireContains(t, translated, "00:00:01,000 --> 00:00:02,000\nT:Hi")
	requireContains(t, translated, "T:Bye")

	_, _, err = runCLI(t, []string{"translate", input, "--to", "zh-Hant-TW"}, env.configPath)
	if err == nil || services.ExitCode(err) != 2 {
		t.Fatalf("expected target rejection, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	out, _, err := runCLI(t, []string{"summarize", input, "--print"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	requireContains(t, out, "# Summary")

	out, _, err = runCLI(t, []string{"summarize", input, "-o", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("summarize write: %v", err)
	}
	target := filepath.Join(env.inputDir, "movie.summary.md")
	requireContains(t, out, target)
	requireContains(t, readFile(t, target), "Two greetings.")
}

func TestProcessHistoryAndBurnDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	out, _, err := runCLI(t, []string{"process", input, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	var result processOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.RunID == "" || result.Cues != 2 || result.Error != "" {
		t.Fatalf("result = %+v", result)
	}
	names := make([]string, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		names = append(names, filepath.Base(a.Path))
	}
	if got := strings.Join(names, ","); got != "movie.srt,movie.es.srt,movie.bilingual.srt" {
		t.Fatalf("artifacts = %s", got)
	}
	bilingual := readFile(t, filepath.Join(env.cfg.Paths.OutputDir, "movie.bilingual.srt"))
	requireContains(t, bilingual, "Hi\nT:Hi")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != result.RunID || runs[0].Status != "succeeded" || runs[0].Command != "process" {
		t.Fatalf("runs = %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history", result.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Status:    succeeded")
	requireContains(t, out, "movie.bilingual.srt")

	out, _, err = runCLI(t, []string{"logs", "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "stage completed")
	requireContains(t, out, "stage=write_bilingual")

	video := env.writeInput(t, "movie.mkv", "video")
	out, _, err = runCLI(t, []string{"burn", video, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("burn dry-run: %v", err)
	}
	requireContains(t, out, "(bilingual)")
	requireContains(t, out, "ffmpeg")
	requireContains(t, out, "movie.bilingual.hardcoded.mkv")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status statusOutput
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !status.ConfigExists || status.Runs["succeeded"] != 1 || status.Target != "es" {
		t.Fatalf("status = %+v", status)
	}
	for _, tool := range status.Tools {
		if tool.Name == "FFmpeg" && !tool.OK {
			t.Fatalf("stubbed ffmpeg not found: %+v", tool)
		}
	}
}

func TestProcessRejections(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "movie.srt", sampleSRT)

	tests := []struct {
		name string
		args []string
	}{
		{"unusable target", []string{"process", input, "--target", "zh-Hant-TW"}},
		{"missing source", []string{"process", filepath.Join(env.inputDir, "nope.srt")}},
		{"unknown kind", []string{"process", input, "--kind", "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := services.ExitCode(err); code != 2 {
				t.Fatalf("exit code = %d, want 2 (%v)", code, err)
			}
		})
	}
}

func TestHistoryEmptyAndUnknown(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	_, _, err = runCLI(t, []string{"history", "0123456789abcdef"}, env.configPath)
	if err == nil || services.ExitCode(err) != 2 {
		t.Fatalf("expected not found, got %v", err)
	}

	_, _, err = runCLI(t, []string{"history", "--status", "exploded"}, env.configPath)
	if err == nil || services.ExitCode(err) != 2 {
		t.Fatalf("expected status rejection, got %v", err)
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		bind string
		want bool
	}{
		{"127.0.0.1:7488", true},
		{"localhost:7488", true},
		{"[::1]:7488", true},
		{"0.0.0.0:7488", false},
		{":7488", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := isLoopback(tt.bind); got != tt.want {
			t.Errorf("isLoopback(%q) = %v, want %v", tt.bind, got, tt.want)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{{header: "A"}, {header: "B", align: alignRight}}, [][]string{{"x"}})
	requireContains(t, out, "A")
	requireContains(t, out, "x")
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty render for no columns")
	}
}
