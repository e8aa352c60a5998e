package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"founder-ai/internal/llm"
)

// nonLatinScripts are the scripts whose presence in a question triggers
// translation before embedding. The embedding corpus is English; questions
// written in these scripts embed poorly against it.
var nonLatinScripts = []*unicode.RangeTable{
	unicode.Hangul,
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Cyrillic,
}

// needsTranslation reports whether the question contains characters from a
// non-Latin script.
func needsTranslation(question string) bool {
	for _, r := range question {
		for _, script := range nonLatinScripts {
			if unicode.Is(script, r) {
				return true
			}
		}
	}
	return false
}

// translateForEmbedding translates a question to English for retrieval.
// The translation is used only for the embedding; the original question
// still drives the answer prompt.
func (e *ragEngine) translateForEmbedding(ctx context.Context, question string) (string, error) {
	messages := []llm.Message{
		{
			Role: "system",
			Content: "You are a translator. Translate the user's text to English. " +
				"Output only the translation, with no commentary or quotation marks.",
		},
		{Role: "user", Content: question},
	}

	translated, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("failed to translate question: %w", err)
	}
	return strings.TrimSpace(translated), nil
}
