package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TranscriptRecord is the catalog row for one ingested transcript.
// Identity is (SourceOrigin, SourceID); re-ingesting the same identity
// replaces this record.
type TranscriptRecord struct {
	ID                string // UUID
	SourceOrigin      string
	SourceID          string
	Title             string
	URL               string
	SpeakerName       string
	SpeakerTitle      string
	SpeakerBackground string
	Description       string
	Topics            string // comma-joined
	SegmentCount      int
	ChunkCount        int
	IngestedAt        time.Time
}
