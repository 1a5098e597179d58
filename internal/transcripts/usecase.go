package transcripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
)

type UseCase interface {
	GetRecordingTranscript(ctx context.Context, recordingID uuid.UUID) ([]*models.TranscriptSegment, error)
	GetTrackTranscript(ctx context.Context, trackID uuid.UUID) ([]*models.TranscriptSegment, error)
}
