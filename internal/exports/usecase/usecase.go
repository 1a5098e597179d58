package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/exports"
	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/pkg/logger"
	"github.com/castforge/studio-backend/pkg/utils"
)

type exportUC struct {
	exportRepo exports.Repository
	jobRepo    jobs.Repository
	logger     logger.Logger
}

func NewExportUseCase(exportRepo exports.Repository, jobRepo jobs.Repository, log logger.Logger) exports.UseCase {
	return &exportUC{
		exportRepo: exportRepo,
		jobRepo:    jobRepo,
		logger:     log,
	}
}

func (u *exportUC) RequestExport(ctx context.Context, input *models.ExportRequestInput) (*models.ExportArtifact, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("RequestExport - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	existing, err := u.exportRepo.GetActiveExport(ctx, input.RecordingID, input.Type)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		u.logger.Infof("export %s/%s already active as %s", input.RecordingID, input.Type, existing.ExportID)
		return existing, nil
	}

	artifact := &models.ExportArtifact{
		ExportID:    uuid.New(),
		RecordingID: input.RecordingID,
		Type:        input.Type,
	}
	payload, err := json.Marshal(models.ExportPayload{ExportID: artifact.ExportID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}

	created, err := u.exportRepo.CreateExport(ctx, artifact, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := u.jobRepo.CreateJobTx(ctx, tx, &models.Job{
			RecordingID: input.RecordingID,
			Type:        models.JobTypeExport,
			Payload:     payload,
		})
		return err
	})
	if errors.Is(err, exports.ErrActiveExists) {
		// Lost the insert race; the winner's artifact is the answer.
		winner, lookupErr := u.exportRepo.GetActiveExport(ctx, input.RecordingID, input.Type)
		if lookupErr == nil && winner != nil {
			u.logger.Infof("export %s/%s raced, returning %s", input.RecordingID, input.Type, winner.ExportID)
			return winner, nil
		}
	}
	if err != nil {
		u.logger.Errorf("RequestExport - CreateExport error: %v", err)
		return nil, err
	}
	return created, nil
}

func (u *exportUC) GetExport(ctx context.Context, exportID uuid.UUID) (*models.ExportArtifact, error) {
	return u.exportRepo.GetExportByID(ctx, exportID)
}
