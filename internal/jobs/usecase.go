package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/pkg/utils"
)

type UseCase interface {
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	GetJobsByRecording(ctx context.Context, recordingID uuid.UUID, pq *utils.Pagination) (*models.JobList, error)
}
