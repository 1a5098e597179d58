package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/exports"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
)

const uniqueViolationCode = "23505"

type exportRepo struct {
	db *sqlx.DB
}

func NewExportRepo(db *sqlx.DB) exports.Repository {
	return &exportRepo{
		db: db,
	}
}

func (r *exportRepo) CreateExport(ctx context.Context, artifact *models.ExportArtifact, enqueue func(ctx context.Context, tx *sqlx.Tx) error) (*models.ExportArtifact, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if artifact.ExportID == uuid.Nil {
		artifact.ExportID = uuid.New()
	}
	created := &models.ExportArtifact{}
	if err = tx.QueryRowxContext(
		ctx,
		createExportQuery,
		artifact.ExportID,
		artifact.RecordingID,
		artifact.Type,
	).StructScan(created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, errors.Wrapf(exports.ErrActiveExists, "recording %s type %s", artifact.RecordingID, artifact.Type)
		}
		return nil, fmt.Errorf("failed to create export artifact: %w", err)
	}

	if err = enqueue(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to enqueue export job: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit export creation: %w", err)
	}
	return created, nil
}

func (r *exportRepo) GetExportByID(ctx context.Context, exportID uuid.UUID) (*models.ExportArtifact, error) {
	artifact := &models.ExportArtifact{}
	if err := r.db.QueryRowxContext(ctx, getExportByIDQuery, exportID).StructScan(artifact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(pipeline.ErrNotFound, "export %s", exportID)
		}
		return nil, errors.Wrapf(pipeline.ErrDBFailure, "get export by id: %v", err)
	}
	return artifact, nil
}

func (r *exportRepo) GetActiveExport(ctx context.Context, recordingID uuid.UUID, exportType models.ExportType) (*models.ExportArtifact, error) {
	artifact := &models.ExportArtifact{}
	err := r.db.QueryRowxContext(ctx, getActiveExportQuery, recordingID, exportType).StructScan(artifact)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active export: %w", err)
	}
	return artifact, nil
}

func (r *exportRepo) MarkRunning(ctx context.Context, exportID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, markExportRunningQuery, exportID); err != nil {
		return fmt.Errorf("failed to mark export running: %w", err)
	}
	return nil
}

func (r *exportRepo) MarkSucceeded(ctx context.Context, exportID uuid.UUID, storageKey string) error {
	if _, err := r.db.ExecContext(ctx, markExportSucceededQuery, exportID, storageKey); err != nil {
		return fmt.Errorf("failed to mark export succeeded: %w", err)
	}
	return nil
}

func (r *exportRepo) MarkFailed(ctx context.Context, exportID uuid.UUID, errMsg string) error {
	if _, err := r.db.ExecContext(ctx, markExportFailedQuery, exportID, errMsg); err != nil {
		return fmt.Errorf("failed to mark export failed: %w", err)
	}
	return nil
}
