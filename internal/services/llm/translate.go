package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TranslationPrompt is the system prompt for Translate. The two %s verbs are
// the source and target language names.
const TranslationPrompt = `You are a professional translator. Translate the user's text from %s to %s.
Preserve line breaks, punctuation, and any SRT timing lines or numbering exactly.
Do not add commentary. Respond with JSON only: {"translation": "<translated text>"}`

// Translate returns text translated from source to target. Language names
// are passed to the model verbatim.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("llm translate: text required")
	}
	content, err := c.CompleteJSON(ctx, fmt.Sprintf(TranslationPrompt, source, target), text)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("llm translate: parse payload: %w", err)
	}
	translation := strings.TrimSpace(parsed.Translation)
	if translation == "" {
		return "", errors.New("llm translate: empty translation")
	}
	return translation, nil
}
