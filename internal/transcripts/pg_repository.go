package transcripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
)

type Repository interface {
	// ReplaceSegments deletes every stored segment for the (recording,
	// track) pair and inserts the new set in one transaction, so ASR
	// re-runs never duplicate.
	ReplaceSegments(ctx context.Context, recordingID, trackID uuid.UUID, segments []*models.TranscriptSegment) error
	GetSegmentsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*models.TranscriptSegment, error)
	GetSegmentsByTrack(ctx context.Context, trackID uuid.UUID) ([]*models.TranscriptSegment, error)
}
