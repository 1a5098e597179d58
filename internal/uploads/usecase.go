package uploads

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
)

type UseCase interface {
	// InitiateUpload creates the track + upload pair and returns the
	// transport plan (presigned part URLs for multipart).
	InitiateUpload(ctx context.Context, input *models.InitiateUploadInput) (*models.UploadPlan, error)
	// CompleteUpload finalizes either transport. Idempotent: replays of an
	// already-finalized upload return AlreadyCompleted without side effects.
	CompleteUpload(ctx context.Context, uploadID uuid.UUID, input *models.CompleteUploadInput) (*models.CompleteUploadResult, error)
	// RegisterExternalSession handles the resumable server's
	// session-creation webhook.
	RegisterExternalSession(ctx context.Context, input *models.ResumableHookInput) error
	RecordProgress(ctx context.Context, uploadID uuid.UUID, bytesReceived int64) error
	GetUploadStatus(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)
}
