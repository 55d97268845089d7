package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dualsub/internal/language"
	"dualsub/internal/translation"
)

const translationSystemPrompt = `You translate subtitle lines.
You receive a JSON object with "source_language", "target_language" and "texts", an array of subtitle cue texts.
Translate every element into the target language, keeping tone, register and line breaks.
Return JSON only: {"translations": [...]} with exactly one string per input element, in the same order.
Never merge, split, drop or reorder elements. Never add explanations.`

// Translator adapts the chat client to translation.Translator. Retries are
// left to the orchestrator, so callers should build the client with
// WithRetryMaxAttempts(1).
type Translator struct {
	client         *Client
	sourceLanguage string
}

// NewTranslator wraps client. sourceLanguage may be empty or "auto".
func NewTranslator(client *Client, sourceLanguage string) *Translator {
	return &Translator{client: client, sourceLanguage: strings.TrimSpace(sourceLanguage)}
}

type translationRequest struct {
	SourceLanguage string   `json:"source_language"`
	TargetLanguage string   `json:"target_language"`
	Texts          []string `json:"texts"`
}

type translationResponse struct {
	Translations []string `json:"translations"`
}

// Translate sends one batch.
func (t *Translator) Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	source := t.sourceLanguage
	if source == "" || strings.EqualFold(source, "auto") {
		source = "auto-detect"
	} else {
		source = language.DisplayName(source)
	}
	prompt, err := json.Marshal(translationRequest{
		SourceLanguage: source,
		TargetLanguage: fmt.Sprintf("%s (%s)", language.DisplayName(targetLanguage), targetLanguage),
		Texts:          texts,
	})
	if err != nil {
		return nil, translation.Permanent(fmt.Errorf("llm translate: encode request: %w", err))
	}

	content, err := t.client.CompleteJSON(ctx, translationSystemPrompt, string(prompt))
	if err != nil {
		return nil, classify(err)
	}
	out, err := parseTranslations(content)
	if err != nil {
		return nil, translation.Transient(fmt.Errorf("llm translate: %w", err))
	}
	return out, nil
}

// parseTranslations accepts {"translations": [...]} or a bare array.
func parseTranslations(content string) ([]string, error) {
	var wrapped translationResponse
	if err := DecodeLLMJSON(content, &wrapped); err == nil && wrapped.Translations != nil {
		return wrapped.Translations, nil
	}
	var bare []string
	if err := DecodeLLMJSON(content, &bare); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return bare, nil
}

// classify maps client failures onto the orchestrator's retry policy.
func classify(err error) error {
	if retry, _ := isRetryable(err); retry {
		return translation.Transient(err)
	}
	return translation.Permanent(err)
}
