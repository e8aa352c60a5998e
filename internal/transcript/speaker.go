package transcript

import "regexp"

// SpeakerInferrer extracts a speaker name from a free-form description.
// Implementations are best-effort enrichment; a stricter parser can be
// substituted without touching the normalizer.
type SpeakerInferrer interface {
	// InferSpeaker returns the extracted name and whether one was found.
	InferSpeaker(description string) (string, bool)
}

// heuristicInferrer applies an ordered set of regex heuristics; the first
// match wins.
type heuristicInferrer struct {
	patterns []*regexp.Regexp
}

// NewHeuristicSpeakerInferrer returns the default regex-based inferrer.
func NewHeuristicSpeakerInferrer() SpeakerInferrer {
	return &heuristicInferrer{
		patterns: []*regexp.Regexp{
			// Role keyword followed by a capitalized name pair:
			// "founder Jane Doe", "CEO John Smith".
			regexp.MustCompile(`(?:[Ff]ounder|CEO|CTO|[Ii]nvestor|[Pp]artner|[Cc]oach|[Aa]uthor|[Ee]ntrepreneur)\s+([A-Z][a-z]+\s[A-Z][a-z]+)`),
			// Name pair followed by a role keyword: "Jane Doe, founder of".
			regexp.MustCompile(`([A-Z][a-z]+\s[A-Z][a-z]+),?\s+(?:[Ff]ounder|CEO|CTO|[Ii]nvestor|[Pp]artner|[Cc]oach|[Aa]uthor|[Ee]ntrepreneur)`),
			// "Jane Doe joins us", "Jane Doe shares", "Jane Doe explains".
			regexp.MustCompile(`([A-Z][a-z]+\s[A-Z][a-z]+)\s+(?:joins|shares|explains|discusses|talks|reveals)`),
			// Possessive: "Jane Doe's journey".
			regexp.MustCompile(`([A-Z][a-z]+\s[A-Z][a-z]+)'s`),
		},
	}
}

func (h *heuristicInferrer) InferSpeaker(description string) (string, bool) {
	for _, p := range h.patterns {
		if m := p.FindStringSubmatch(description); m != nil {
			return m[1], true
		}
	}
	return "", false
}
