package rag

import (
	"fmt"
	"strings"

	"founder-ai/internal/llm"
	"founder-ai/internal/vectorstore"
)

// contextSeparator keeps retrieved blocks visually distinct in the prompt.
const contextSeparator = "\n\n---\n\n"

// genericSpeakerLabel is used when no retrieved chunk carries speaker
// metadata.
const genericSpeakerLabel = "the speaker"

// buildContext concatenates the retrieved (not deduplicated) chunks as
// labeled blocks in retrieval rank order. Dedup only shapes citations;
// every retrieved chunk still contributes context.
func buildContext(matches []vectorstore.Match) string {
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		speaker := payloadString(m.Payload, "speaker")
		if speaker == "" {
			speaker = genericSpeakerLabel
		}
		blocks = append(blocks, fmt.Sprintf("[Source %d] %s in %q: %s",
			i+1,
			speaker,
			payloadString(m.Payload, "title"),
			payloadString(m.Payload, "content"),
		))
	}
	return strings.Join(blocks, contextSeparator)
}

// dominantSpeaker picks the majority speaker across retrieved chunks.
// Ties break toward the first-encountered name; chunks without speaker
// metadata fall back to a generic label.
func dominantSpeaker(matches []vectorstore.Match) string {
	counts := make(map[string]int)
	var order []string

	for _, m := range matches {
		name := payloadString(m.Payload, "speaker")
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	best := genericSpeakerLabel
	bestCount := 0
	for _, name := range order {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

// buildAnswerPrompt constructs the persona-bound prompt. The structural
// template (insight, steps, pointed note, follow-up) is presentation only
// and not part of the retrieval contract.
func buildAnswerPrompt(question, contextBlock, speaker, locale string) []llm.Message {
	var language string
	switch locale {
	case "ko":
		language = "Answer in Korean."
	default:
		language = "Answer in English."
	}

	systemPrompt := fmt.Sprintf(
		"You are %s, answering a founder's question in first person. "+
			"Ground every claim strictly in the transcript excerpts provided in the user message; "+
			"if the excerpts do not cover something, say so instead of inventing it. "+
			"Structure the answer as: the key insight, concrete actionable steps, "+
			"one pointed note of caution, and a suggested follow-up question. %s",
		speaker, language,
	)

	userMessage := fmt.Sprintf("%s\n\n--- Transcript excerpts ---\n\n%s\n\n--- End excerpts ---",
		question, contextBlock)

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
}

// normalizeLocale folds unknown locales to English.
func normalizeLocale(locale string) string {
	if locale == "ko" {
		return "ko"
	}
	return "en"
}

// noContentAnswer is the fixed response when retrieval finds nothing above
// threshold.
func noContentAnswer(locale string) string {
	if locale == "ko" {
		return "질문과 관련된 인터뷰 내용을 찾지 못했습니다. 다른 질문으로 다시 시도해 주세요."
	}
	return "I couldn't find any relevant interview content to answer that question. Please try asking something else."
}
