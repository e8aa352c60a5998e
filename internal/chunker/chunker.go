package chunker

import (
	"strings"

	"founder-ai/internal/transcript"
)

const (
	// charsPerToken converts a token budget to a character budget.
	// 1 token ~= 4 characters of English text; no real tokenizer is
	// invoked, so the budget is approximate.
	charsPerToken = 4

	// DefaultTokenBudget targets chunks small enough for 512-token
	// embedding models with headroom for the overlap seed.
	DefaultTokenBudget = 300

	// DefaultOverlapSegments is how many trailing segment texts of a
	// closed chunk are repeated at the head of the next one.
	DefaultOverlapSegments = 2
)

// Chunk is a bounded span of transcript text, the unit of retrieval.
// StartTime and EndTime are offsets in seconds; StartTime <= EndTime holds
// for every chunk the Chunker emits.
type Chunk struct {
	Content   string
	StartTime float64
	EndTime   float64
	Index     int
}

// Chunker groups ordered transcript segments into size-bounded chunks with
// a small trailing/leading overlap between neighbors.
type Chunker struct {
	charBudget      int
	overlapSegments int
}

// New creates a Chunker. targetTokenBudget <= 0 falls back to
// DefaultTokenBudget; overlapSegments < 0 falls back to
// DefaultOverlapSegments.
func New(targetTokenBudget, overlapSegments int) *Chunker {
	if targetTokenBudget <= 0 {
		targetTokenBudget = DefaultTokenBudget
	}
	if overlapSegments < 0 {
		overlapSegments = DefaultOverlapSegments
	}
	return &Chunker{
		charBudget:      targetTokenBudget * charsPerToken,
		overlapSegments: overlapSegments,
	}
}

// Chunk converts segments into chunks. Segment texts accumulate into a
// buffer joined by single spaces; when appending the next segment would
// exceed the character budget and the buffer is non-empty, the chunk is
// closed and the next buffer is seeded with the last overlapSegments
// source segment texts. The seed is always built from source segments,
// never from an earlier seed, so overlap stays bounded at overlapSegments
// segments no matter how small the budget is. A single segment larger
// than the budget is still appended whole: the budget is a soft target,
// never a reason to split a segment. The final partial buffer always
// yields a chunk. Deterministic: identical input produces identical
// boundaries.
func (c *Chunker) Chunk(segments []transcript.Segment) []Chunk {
	var chunks []Chunk
	var pieces []string
	var bufLen int
	var startTime, endTime float64

	// Trailing source segment texts, capped at overlapSegments.
	var recent []string

	for _, seg := range segments {
		added := len(seg.Text)
		if len(pieces) > 0 {
			added++ // joining space
		}

		if len(pieces) > 0 && bufLen+added > c.charBudget {
			chunks = append(chunks, Chunk{
				Content:   strings.Join(pieces, " "),
				StartTime: startTime,
				EndTime:   endTime,
				Index:     len(chunks),
			})

			// Seed the next chunk with the trailing source segments
			// of the one just closed so retrieval keeps cross-chunk
			// context.
			seed := strings.Join(recent, " ")
			pieces = pieces[:0]
			bufLen = 0
			if seed != "" {
				pieces = append(pieces, seed)
				bufLen = len(seed)
			}
			startTime = seg.Time
		}

		if len(pieces) == 0 {
			startTime = seg.Time
			bufLen = len(seg.Text)
		} else {
			bufLen += len(seg.Text) + 1
		}
		pieces = append(pieces, seg.Text)
		endTime = seg.Time

		if c.overlapSegments > 0 {
			recent = append(recent, seg.Text)
			if len(recent) > c.overlapSegments {
				recent = recent[1:]
			}
		}
	}

	if len(pieces) > 0 {
		chunks = append(chunks, Chunk{
			Content:   strings.Join(pieces, " "),
			StartTime: startTime,
			EndTime:   endTime,
			Index:     len(chunks),
		})
	}

	return chunks
}
