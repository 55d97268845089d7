package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/config"
	"dualsub/internal/testsupport"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHi\n\n2\n00:00:03,000 --> 00:00:04,500\nBye\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	inputDir   string
	provider   *httptest.Server
}

// fakeProvider answers chat completions the way the translation, summary
// and health check prompts expect.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		system := payload.Messages[0].Content
		user := payload.Messages[len(payload.Messages)-1].Content

		content := `{"ok":true}`
		var batch struct {
			Texts []string `json:"texts"`
		}
		switch {
		case json.Unmarshal([]byte(user), &batch) == nil && batch.Texts != nil:
			out := make([]string, len(batch.Texts))
			for i, text := range batch.Texts {
				out[i] = "T:" + text
			}
			data, _ := json.Marshal(map[string][]string{"translations": out})
			content = string(data)
		case strings.Contains(system, "summarize"):
			content = "# Summary\n\nTwo greetings."
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithFormats("srt"))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENROUTER_API_KEY", "")

	provider := fakeProvider(t)
	cfg.LLM.BaseURL = provider.URL

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	inputDir := filepath.Join(base, "input")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		inputDir:   inputDir,
		provider:   provider,
	}
}

func (e *cliTestEnv) writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.inputDir, name)
	testsupport.WriteText(t, path, content)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
output_dir = %q
work_dir = %q
state_dir = %q

[translation]
target_language = "es"
max_attempts = 1

[llm]
api_key = %q
base_url = %q

[output]
formats = ["srt"]

[logging]
level = "error"
`,
		cfg.Paths.OutputDir,
		cfg.Paths.WorkDir,
		cfg.Paths.StateDir,
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
