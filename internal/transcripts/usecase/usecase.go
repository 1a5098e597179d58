package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/transcripts"
	"github.com/castforge/studio-backend/pkg/logger"
)

type transcriptUC struct {
	transcriptRepo transcripts.Repository
	logger         logger.Logger
}

func NewTranscriptUseCase(transcriptRepo transcripts.Repository, log logger.Logger) transcripts.UseCase {
	return &transcriptUC{
		transcriptRepo: transcriptRepo,
		logger:         log,
	}
}

func (u *transcriptUC) GetRecordingTranscript(ctx context.Context, recordingID uuid.UUID) ([]*models.TranscriptSegment, error) {
	return u.transcriptRepo.GetSegmentsByRecording(ctx, recordingID)
}

func (u *transcriptUC) GetTrackTranscript(ctx context.Context, trackID uuid.UUID) ([]*models.TranscriptSegment, error) {
	return u.transcriptRepo.GetSegmentsByTrack(ctx, trackID)
}
