package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/transcripts"
)

type transcriptRepo struct {
	db *sqlx.DB
}

func NewTranscriptRepo(db *sqlx.DB) transcripts.Repository {
	return &transcriptRepo{
		db: db,
	}
}

func (r *transcriptRepo) ReplaceSegments(ctx context.Context, recordingID, trackID uuid.UUID, segments []*models.TranscriptSegment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteSegmentsQuery, recordingID, trackID); err != nil {
		return fmt.Errorf("failed to delete previous segments: %w", err)
	}
	for _, seg := range segments {
		if seg.SegmentID == uuid.Nil {
			seg.SegmentID = uuid.New()
		}
		if _, err = tx.ExecContext(
			ctx,
			insertSegmentQuery,
			seg.SegmentID,
			recordingID,
			trackID,
			seg.StartMs,
			seg.EndMs,
			seg.Text,
			seg.Speaker,
			seg.Confidence,
		); err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit segments: %w", err)
	}
	return nil
}

func (r *transcriptRepo) GetSegmentsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*models.TranscriptSegment, error) {
	return r.querySegments(ctx, getSegmentsByRecordingQuery, recordingID)
}

func (r *transcriptRepo) GetSegmentsByTrack(ctx context.Context, trackID uuid.UUID) ([]*models.TranscriptSegment, error) {
	return r.querySegments(ctx, getSegmentsByTrackQuery, trackID)
}

func (r *transcriptRepo) querySegments(ctx context.Context, query string, arg interface{}) ([]*models.TranscriptSegment, error) {
	rows, err := r.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get segments: %w", err)
	}
	defer rows.Close()
	segments := make([]*models.TranscriptSegment, 0)
	for rows.Next() {
		var seg models.TranscriptSegment
		if err = rows.StructScan(&seg); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, &seg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan segments: %w", err)
	}
	return segments, nil
}
