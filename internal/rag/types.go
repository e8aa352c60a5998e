package rag

// AskRequest represents a question put to the query pipeline.
type AskRequest struct {
	// Question is the user's question, in any supported language.
	Question string `json:"question"`
	// Locale selects the answer language: "en" or "ko". Defaults to "en".
	Locale string `json:"locale,omitempty"`
}

// Source is a citation surfaced with an answer: one entry per distinct
// source video, pointing at the highest-similarity chunk that matched.
type Source struct {
	// Title is the transcript title.
	Title string `json:"title"`
	// URL links to the source at the cited offset. Constructed from the
	// source id and start time when no absolute URL is stored.
	URL string `json:"url"`
	// Timestamp is the cited chunk's start offset in seconds.
	Timestamp float64 `json:"timestamp"`
	// Speaker is the speaker name, if known.
	Speaker string `json:"speaker,omitempty"`
}

// AskResponse represents the answer to a question.
type AskResponse struct {
	// Answer is the generated answer.
	Answer string `json:"answer"`
	// Sources are the deduplicated citations backing the answer.
	Sources []Source `json:"sources"`
}
