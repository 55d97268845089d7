package gemini

import (
	"context"
	"fmt"
	"strings"

	"dualsub/internal/language"
	"dualsub/internal/services/llm"
	"dualsub/internal/translation"
)

// Translator adapts Client to translation.Translator.
type Translator struct {
	client         *Client
	sourceLanguage string
}

// NewTranslator wraps client. sourceLanguage may be empty or "auto".
func NewTranslator(client *Client, sourceLanguage string) *Translator {
	return &Translator{client: client, sourceLanguage: strings.TrimSpace(sourceLanguage)}
}

func systemPrompt(source, target string) string {
	from := "the source language"
	if source != "" && !strings.EqualFold(source, "auto") {
		from = language.DisplayName(source)
	}
	return fmt.Sprintf("You are a professional subtitle translator. Translate subtitle cues from %s into %s (%s). "+
		"Keep the tone and register of spoken dialogue and keep line breaks inside a cue. Do not add explanations.",
		from, language.DisplayName(target), target)
}

// Translate sends one batch as numbered cues and expects a JSON array back.
func (t *Translator) Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	var prompt strings.Builder
	prompt.WriteString("Translate the following subtitle cues. Return ONLY a JSON array with the translated text for each cue, maintaining the same order and count.\n\n")
	prompt.WriteString("Input cues:\n")
	for i, text := range texts {
		fmt.Fprintf(&prompt, "[%d] %s\n", i+1, strings.ReplaceAll(text, "\n", "\\n"))
	}
	fmt.Fprintf(&prompt, "\nReturn exactly %d translations as a JSON array of strings. Write line breaks inside a cue as \\n.", len(texts))

	out, err := t.client.CompleteJSON(ctx, systemPrompt(t.sourceLanguage, targetLanguage), prompt.String())
	if err != nil {
		if retryable(err) {
			return nil, translation.Transient(err)
		}
		return nil, translation.Permanent(err)
	}
	var translations []string
	if err := llm.DecodeLLMJSON(out, &translations); err != nil {
		return nil, translation.Transient(fmt.Errorf("gemini: parse translations: %w", err))
	}
	return translations, nil
}
