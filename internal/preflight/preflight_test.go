package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"ok":true}`}}},
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": "OK"}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckLLM(t *testing.T) {
	ok := healthServer(t, http.StatusOK)
	if r := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "k", BaseURL: ok.URL}); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	bad := healthServer(t, http.StatusUnauthorized)
	if r := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "k", BaseURL: bad.URL}); r.Passed {
		t.Fatal("expected failure for bad key")
	}
	if r := CheckLLM(context.Background(), "LLM", config.LLM{}); r.Passed || r.Detail != "API key missing" {
		t.Fatalf("unexpected result for missing key: %+v", r)
	}
}

func TestCheckGemini(t *testing.T) {
	ok := healthServer(t, http.StatusOK)
	if r := CheckGemini(context.Background(), "Gemini", config.Gemini{APIKey: "k", BaseURL: ok.URL}); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	bad := healthServer(t, http.StatusForbidden)
	if r := CheckGemini(context.Background(), "Gemini", config.Gemini{APIKey: "k", BaseURL: bad.URL}); r.Passed {
		t.Fatal("expected failure")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Directories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.OutputDir = ""

	results := RunAll(context.Background(), &cfg, Options{OutputDir: t.TempDir()})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if err := Err(results); err != nil {
		t.Fatalf("unexpected failures: %v", err)
	}
}

func TestRunAll_TranslateAddsProviderCheck(t *testing.T) {
	srv := healthServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "missing")
	cfg.LLM.APIKey = "k"
	cfg.LLM.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg, Options{Translate: true})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].Name != "Translation LLM" || !results[2].Passed {
		t.Fatalf("unexpected provider result %+v", results[2])
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "State directory" {
		t.Fatalf("expected only the state directory to fail, got %+v", failed)
	}
	if err := Err(results); err == nil || !strings.Contains(err.Error(), "State directory") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	bin := t.TempDir()
	script := []byte("#!/bin/sh\necho ' ... subtitles  V->V  Render text subtitles'\n")
	for _, name := range []string{"ffmpeg", "uvx"} {
		if err := os.WriteFile(filepath.Join(bin, name), script, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", bin)

	cfg := config.Default()
	cfg.Burn.Enabled = true
	statuses := CheckSystemDeps(context.Background(), &cfg, true)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Errorf("%s unavailable: %s", s.Name, s.Detail)
		}
	}
}
