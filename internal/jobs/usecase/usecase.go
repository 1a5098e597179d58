package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/pkg/logger"
	"github.com/castforge/studio-backend/pkg/utils"
)

type jobUC struct {
	cfg     *config.Config
	jobRepo jobs.Repository
	logger  logger.Logger
}

func NewJobUseCase(cfg *config.Config, jobRepo jobs.Repository, log logger.Logger) jobs.UseCase {
	return &jobUC{
		cfg:     cfg,
		jobRepo: jobRepo,
		logger:  log,
	}
}

func (u *jobUC) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return u.jobRepo.GetJobByID(ctx, jobID)
}

func (u *jobUC) GetJobsByRecording(ctx context.Context, recordingID uuid.UUID, pq *utils.Pagination) (*models.JobList, error) {
	return u.jobRepo.GetJobsByRecording(ctx, recordingID, pq)
}
