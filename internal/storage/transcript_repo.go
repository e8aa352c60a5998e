package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_transcript_store.go -package=mocks founder-ai/internal/storage TranscriptStore

import (
	"context"
	"database/sql"
	"fmt"
)

// TranscriptStore defines the interface for transcript catalog operations.
type TranscriptStore interface {
	// Upsert inserts the record or replaces the existing one with the
	// same (source_origin, source_id) identity.
	Upsert(ctx context.Context, record *TranscriptRecord) error
	// GetBySource gets a record by identity. Returns ErrNotFound if absent.
	GetBySource(ctx context.Context, sourceOrigin, sourceID string) (*TranscriptRecord, error)
	// ListAll returns all records ordered by ingestion time, newest first.
	ListAll(ctx context.Context) ([]*TranscriptRecord, error)
	// DeleteBySource removes a record by identity. Missing records are not
	// an error.
	DeleteBySource(ctx context.Context, sourceOrigin, sourceID string) error
}

// TranscriptRepo provides transcript catalog operations backed by SQLite.
// It implements the TranscriptStore interface.
type TranscriptRepo struct {
	db *sql.DB
}

// NewTranscriptRepo creates a new TranscriptRepo.
func NewTranscriptRepo(db *sql.DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

// Upsert inserts or replaces the catalog record for a source identity.
// The record.ID must be set (UUID) before calling this method.
func (r *TranscriptRepo) Upsert(ctx context.Context, record *TranscriptRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcripts
			(id, source_origin, source_id, title, url, speaker_name, speaker_title,
			 speaker_background, description, topics, segment_count, chunk_count, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_origin, source_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			speaker_name = excluded.speaker_name,
			speaker_title = excluded.speaker_title,
			speaker_background = excluded.speaker_background,
			description = excluded.description,
			topics = excluded.topics,
			segment_count = excluded.segment_count,
			chunk_count = excluded.chunk_count,
			ingested_at = CURRENT_TIMESTAMP`,
		record.ID, record.SourceOrigin, record.SourceID, record.Title, record.URL,
		record.SpeakerName, record.SpeakerTitle, record.SpeakerBackground,
		record.Description, record.Topics, record.SegmentCount, record.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transcript: %w", err)
	}
	return nil
}

// GetBySource gets a record by source identity. Returns ErrNotFound if not found.
func (r *TranscriptRepo) GetBySource(ctx context.Context, sourceOrigin, sourceID string) (*TranscriptRecord, error) {
	var record TranscriptRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source_origin, source_id, title, url, speaker_name, speaker_title,
			speaker_background, description, topics, segment_count, chunk_count, ingested_at
		 FROM transcripts WHERE source_origin = ? AND source_id = ?`,
		sourceOrigin, sourceID,
	).Scan(
		&record.ID, &record.SourceOrigin, &record.SourceID, &record.Title, &record.URL,
		&record.SpeakerName, &record.SpeakerTitle, &record.SpeakerBackground,
		&record.Description, &record.Topics, &record.SegmentCount, &record.ChunkCount,
		&record.IngestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	return &record, nil
}

// ListAll returns all catalog records, newest ingestion first.
func (r *TranscriptRepo) ListAll(ctx context.Context) ([]*TranscriptRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_origin, source_id, title, url, speaker_name, speaker_title,
			speaker_background, description, topics, segment_count, chunk_count, ingested_at
		 FROM transcripts ORDER BY ingested_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*TranscriptRecord
	for rows.Next() {
		var record TranscriptRecord
		if err := rows.Scan(
			&record.ID, &record.SourceOrigin, &record.SourceID, &record.Title, &record.URL,
			&record.SpeakerName, &record.SpeakerTitle, &record.SpeakerBackground,
			&record.Description, &record.Topics, &record.SegmentCount, &record.ChunkCount,
			&record.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// DeleteBySource removes a catalog record by source identity.
func (r *TranscriptRepo) DeleteBySource(ctx context.Context, sourceOrigin, sourceID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM transcripts WHERE source_origin = ? AND source_id = ?",
		sourceOrigin, sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}
