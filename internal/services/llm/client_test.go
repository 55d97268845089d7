package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dualsub/internal/translation"
)

func completionServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

func writeContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Title") != "dualsub" {
			t.Errorf("unexpected X-Title %q", r.Header.Get("X-Title"))
		}
		writeContent(t, w, `{"ok":true}`)
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "dualsub"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeContent(t, w, "```json\n{\"ok\":true}\n```")
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Complete(context.Background(), "system", "user")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClientCompleteOmitsResponseFormat(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := body["response_format"]; ok {
			t.Errorf("free-text completion should not set response_format")
		}
		writeContent(t, w, "# Summary\n\nA talk about subtitles.")
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	got, err := client.Complete(context.Background(), "summarize", "text")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.HasPrefix(got, "# Summary") {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestClientToolCallsArguments(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type": "function",
								"id":   "call_1",
								"function": map[string]any{
									"name":      "translate",
									"arguments": `{"translations":["你好"]}`,
								},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	got, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if !strings.Contains(got, "translations") {
		t.Fatalf("expected tool call arguments, got %q", got)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": `{"ok":true}`}},
		"legacy": {"text": `{"ok":true}`, "finish_reason": "stop"},
	} {
		t.Run(name, func(t *testing.T) {
			server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
			})
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			if err := client.HealthCheck(context.Background()); err != nil {
				t.Fatalf("HealthCheck: %v", err)
			}
		})
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeContent(t, w, "")
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		writeContent(t, w, `{"ok":true}`)
	})

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"ok":true}`
		}
		writeContent(t, w, content)
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestBackoffDelayDoublesUntilCap(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Errorf("backoffDelay(%d) = %s, want %s", i+1, got, expected)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n[\"a\"]\n```", `["a"]`},
		{"```\n{\"ok\":true}\n```", `{"ok":true}`},
		{"```markdown\n# Title\n```", "# Title"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslatorSendsBatchAndParsesTranslations(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != jsonResponseType {
			t.Errorf("expected json response format, got %+v", req.ResponseFormat)
		}
		var batch translationRequest
		if err := json.Unmarshal([]byte(req.Messages[1].Content), &batch); err != nil {
			t.Fatalf("decode batch: %v", err)
		}
		if len(batch.Texts) != 2 || batch.Texts[0] != "Hi" {
			t.Errorf("unexpected texts %v", batch.Texts)
		}
		if !strings.Contains(batch.TargetLanguage, "zh-CN") {
			t.Errorf("unexpected target %q", batch.TargetLanguage)
		}
		writeContent(t, w, "```json\n{\"translations\":[\"嗨\",\"再见\"]}\n```")
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetryMaxAttempts(1))
	got, err := NewTranslator(client, "en").Translate(context.Background(), []string{"Hi", "Bye"}, "zh-CN")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 2 || got[0] != "嗨" || got[1] != "再见" {
		t.Fatalf("unexpected translations %v", got)
	}
}

func TestTranslatorAcceptsBareArray(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeContent(t, w, `["Salut"]`)
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetryMaxAttempts(1))
	got, err := NewTranslator(client, "").Translate(context.Background(), []string{"Hi"}, "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 1 || got[0] != "Salut" {
		t.Fatalf("unexpected translations %v", got)
	}
}

func TestTranslatorClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		want    translation.ErrorKind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: translation.KindTransient},
		{name: "server error", status: http.StatusBadGateway, want: translation.KindTransient},
		{name: "bad key", status: http.StatusUnauthorized, want: translation.KindPermanent},
		{name: "quota", status: http.StatusPaymentRequired, want: translation.KindPermanent},
		{name: "malformed payload", status: http.StatusOK, content: "sorry, I cannot", want: translation.KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
				if tt.status != http.StatusOK {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
					return
				}
				writeContent(t, w, tt.content)
			})
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetryMaxAttempts(1))
			_, err := NewTranslator(client, "en").Translate(context.Background(), []string{"Hi"}, "zh-CN")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := translation.KindOf(err); got != tt.want {
				t.Fatalf("KindOf = %s, want %s (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestTranslatorMissingKeyIsPermanent(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, WithRetryMaxAttempts(1))
	_, err := NewTranslator(client, "en").Translate(context.Background(), []string{"Hi"}, "zh-CN")
	if translation.KindOf(err) != translation.KindPermanent {
		t.Fatalf("expected permanent failure, got %v", err)
	}
}
