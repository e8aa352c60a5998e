package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// A header block is fenced by lines consisting only of dashes or equals.
	delimiterRe = regexp.MustCompile(`^[-=]{3,}$`)

	// First non-blank header line looking like "key: value" switches the
	// header into structured mode.
	keyValueRe = regexp.MustCompile(`^[A-Za-z0-9_]+\s*:`)

	// Bare timestamp on its own line: "1:23" or "1:02:03".
	bareTimeRe = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)$`)

	// Timestamp followed by text on the same line.
	inlineTimeRe = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+(.+)$`)

	// YouTube-style 11-character video ids in file names: either a token
	// followed by a separator ("dQw4w9WgXcQ_interview.txt") or bracketed
	// after a title ("interview [dQw4w9WgXcQ].txt").
	fileIDPrefixRe  = regexp.MustCompile(`(?:^|[^0-9A-Za-z_-])([0-9A-Za-z_-]{11})[_.]`)
	fileIDBracketRe = regexp.MustCompile(`\[([0-9A-Za-z_-]{11})\]`)
)

// Normalizer parses heterogeneous raw transcript inputs into canonical
// Transcript values. It never fails: malformed input degrades to a
// transcript with an empty segment list.
type Normalizer struct {
	inferrer SpeakerInferrer
}

// NewNormalizer creates a Normalizer with the default regex-heuristic
// speaker inferrer.
func NewNormalizer() *Normalizer {
	return &Normalizer{inferrer: NewHeuristicSpeakerInferrer()}
}

// NewNormalizerWithInferrer creates a Normalizer with a custom speaker
// inferrer. Pass nil to disable speaker inference entirely.
func NewNormalizerWithInferrer(inferrer SpeakerInferrer) *Normalizer {
	return &Normalizer{inferrer: inferrer}
}

// Normalize parses raw transcript text. fallbackName (usually the source
// file name) is used to recover a video id when the header does not carry
// one; if neither yields an id, SourceID is left empty and the caller must
// supply one before persistence.
func (n *Normalizer) Normalize(raw, fallbackName string) Transcript {
	lines := strings.Split(raw, "\n")

	header, body := splitHeader(lines)

	var t Transcript
	if len(header) > 0 {
		if isStructuredHeader(header) {
			n.parseStructuredHeader(header, &t)
		} else {
			n.parseFreeformHeader(header, &t)
		}
	}

	t.Segments = parseBody(body)

	if t.SourceID == "" {
		t.SourceID = extractVideoID(fallbackName)
	}

	return t
}

// splitHeader returns the lines between the first and second delimiter and
// the remaining body lines. Content before the first delimiter is ignored.
// Without a delimiter pair the whole input is treated as body.
func splitHeader(lines []string) (header, body []string) {
	first := -1
	for i, line := range lines {
		if delimiterRe.MatchString(strings.TrimSpace(line)) {
			if first == -1 {
				first = i
				continue
			}
			return lines[first+1 : i], lines[i+1:]
		}
	}
	return nil, lines
}

func isStructuredHeader(header []string) bool {
	for _, line := range header {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return keyValueRe.MatchString(trimmed)
	}
	return false
}

// parseStructuredHeader interprets the header as key:value pairs.
// Unrecognized keys are ignored so new producers can add fields without
// breaking older ingesters.
func (n *Normalizer) parseStructuredHeader(header []string, t *Transcript) {
	for _, line := range header {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "video_id":
			t.SourceID = value
		case "title":
			t.Title = value
		case "speaker_name", "speaker":
			t.Speaker.Name = value
		case "speaker_title":
			t.Speaker.Title = value
		case "speaker_background", "background":
			t.Speaker.Background = value
		case "description":
			t.Description = value
		case "topics":
			for _, topic := range strings.Split(value, ",") {
				if topic = strings.TrimSpace(topic); topic != "" {
					t.Topics = append(t.Topics, topic)
				}
			}
		}
	}
}

// parseFreeformHeader treats the first non-blank line as the title and the
// remainder, joined by spaces, as the description. Speaker extraction from
// the description is best-effort.
func (n *Normalizer) parseFreeformHeader(header []string, t *Transcript) {
	var rest []string
	for _, line := range header {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if t.Title == "" {
			t.Title = trimmed
			continue
		}
		rest = append(rest, trimmed)
	}
	t.Description = strings.Join(rest, " ")

	if n.inferrer != nil && t.Description != "" {
		if name, ok := n.inferrer.InferSpeaker(t.Description); ok {
			t.Speaker.Name = name
		}
	}
}

// parseBody walks the body lines keeping a pending timestamp. A bare
// timestamp line sets the pending time without emitting anything; an
// inline "time text" line emits a segment immediately; a plain text line
// consumes a pending bare timestamp. Exactly one text line attaches to a
// bare timestamp; further consecutive text lines are dropped.
func parseBody(lines []string) []Segment {
	var segments []Segment
	var pending float64
	havePending := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := bareTimeRe.FindStringSubmatch(trimmed); m != nil {
			if secs, ok := ParseTimestamp(m[1]); ok {
				pending = float64(secs)
				havePending = true
			}
			continue
		}

		if m := inlineTimeRe.FindStringSubmatch(trimmed); m != nil {
			secs, ok := ParseTimestamp(m[1])
			if !ok {
				continue
			}
			segments = append(segments, Segment{Time: float64(secs), Text: strings.TrimSpace(m[2])})
			havePending = false
			continue
		}

		if havePending {
			segments = append(segments, Segment{Time: pending, Text: trimmed})
			havePending = false
		}
	}

	return segments
}

// ParseTimestamp converts "M:SS" or "H:MM:SS" to whole seconds.
// Returns ok=false for anything else.
func ParseTimestamp(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// extractVideoID pattern-matches a file or source name for an 11-character
// video id token. Returns "" when nothing matches.
func extractVideoID(name string) string {
	if m := fileIDPrefixRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := fileIDBracketRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}
