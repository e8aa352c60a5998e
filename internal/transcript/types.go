package transcript

// Segment is a single timed piece of transcript text.
// Time is the offset from the start of the recording, in seconds.
type Segment struct {
	Time float64
	Text string
}

// Speaker holds speaker metadata extracted from a transcript header.
type Speaker struct {
	Name       string
	Title      string
	Background string
}

// Transcript is the canonical form every raw input is normalized into.
// Identity is (SourceOrigin, SourceID); re-ingesting the same identity
// replaces all previously stored rows.
type Transcript struct {
	SourceID     string
	SourceOrigin string
	Title        string
	URL          string
	Speaker      Speaker
	Description  string
	Topics       []string
	Segments     []Segment
}

// HasSegments reports whether the transcript carries any body content.
func (t *Transcript) HasSegments() bool {
	return len(t.Segments) > 0
}
