package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/uploads"
)

type uploadRepo struct {
	db *sqlx.DB
}

func NewUploadRepo(db *sqlx.DB) uploads.Repository {
	return &uploadRepo{
		db: db,
	}
}

func (r *uploadRepo) CreateUploadWithTrack(ctx context.Context, upload *models.Upload, track *models.Track) (*models.Upload, *models.Track, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if track.TrackID == uuid.Nil {
		track.TrackID = uuid.New()
	}
	if upload.UploadID == uuid.Nil {
		upload.UploadID = uuid.New()
	}
	upload.TrackID = track.TrackID

	createdTrack := &models.Track{}
	if err = tx.QueryRowxContext(
		ctx,
		createTrackForUploadQuery,
		track.TrackID,
		track.RecordingID,
		track.ParticipantID,
		track.Kind,
	).StructScan(createdTrack); err != nil {
		return nil, nil, fmt.Errorf("failed to create track: %w", err)
	}

	createdUpload := &models.Upload{}
	if err = tx.QueryRowxContext(
		ctx,
		createUploadQuery,
		upload.UploadID,
		upload.TrackID,
		upload.Protocol,
		upload.StorageBucket,
		upload.ObjectKey,
		upload.MultipartID,
		upload.PartSize,
		upload.ExpectedSize,
	).StructScan(createdUpload); err != nil {
		return nil, nil, fmt.Errorf("failed to create upload: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit upload initiation: %w", err)
	}
	return createdUpload, createdTrack, nil
}

func (r *uploadRepo) GetUploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	upload := &models.Upload{}
	if err := r.db.QueryRowxContext(ctx, getUploadByIDQuery, uploadID).StructScan(upload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(pipeline.ErrNotFound, "upload %s", uploadID)
		}
		return nil, errors.Wrapf(pipeline.ErrDBFailure, "get upload by id: %v", err)
	}
	return upload, nil
}

func (r *uploadRepo) FinalizeUpload(ctx context.Context, uploadID, trackID uuid.UUID, rawKey string, bytesReceived int64, enqueue func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, completeUploadQuery, uploadID, bytesReceived)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no in-progress upload %s to finalize", uploadID)
	}

	if _, err = tx.ExecContext(ctx, markTrackUploadedQuery, trackID, rawKey); err != nil {
		return fmt.Errorf("failed to mark track uploaded: %w", err)
	}

	if err = enqueue(ctx, tx); err != nil {
		return fmt.Errorf("failed to enqueue follow-up job: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upload finalization: %w", err)
	}
	return nil
}

func (r *uploadRepo) MapExternalSession(ctx context.Context, uploadID uuid.UUID, externalSessionID string) error {
	if _, err := r.db.ExecContext(ctx, mapExternalSessionQuery, uploadID, externalSessionID); err != nil {
		return fmt.Errorf("failed to map external session: %w", err)
	}
	return nil
}

func (r *uploadRepo) GetExternalSession(ctx context.Context, uploadID uuid.UUID) (string, error) {
	var externalID string
	err := r.db.GetContext(ctx, &externalID, getExternalSessionQuery, uploadID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get external session: %w", err)
	}
	return externalID, nil
}
