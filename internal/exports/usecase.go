package exports

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
)

type UseCase interface {
	// RequestExport enqueues an export job for the recording, returning the
	// existing artifact instead of creating a duplicate while one is
	// queued, running or already succeeded.
	RequestExport(ctx context.Context, input *models.ExportRequestInput) (*models.ExportArtifact, error)
	GetExport(ctx context.Context, exportID uuid.UUID) (*models.ExportArtifact, error)
}
