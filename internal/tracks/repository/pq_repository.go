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
	"github.com/castforge/studio-backend/internal/tracks"
)

type trackRepo struct {
	db *sqlx.DB
}

func NewTrackRepo(db *sqlx.DB) tracks.Repository {
	return &trackRepo{
		db: db,
	}
}

func (r *trackRepo) CreateTrackTx(ctx context.Context, tx *sqlx.Tx, track *models.Track) (*models.Track, error) {
	if track.TrackID == uuid.Nil {
		track.TrackID = uuid.New()
	}
	created := &models.Track{}
	if err := tx.QueryRowxContext(
		ctx,
		createTrackQuery,
		track.TrackID,
		track.RecordingID,
		track.ParticipantID,
		track.Kind,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}
	return created, nil
}

func (r *trackRepo) GetTrackByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error) {
	track := &models.Track{}
	if err := r.db.QueryRowxContext(ctx, getTrackByIDQuery, trackID).StructScan(track); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(pipeline.ErrNotFound, "track %s", trackID)
		}
		return nil, errors.Wrapf(pipeline.ErrDBFailure, "get track by id: %v", err)
	}
	return track, nil
}

func (r *trackRepo) MarkProcessed(ctx context.Context, trackID uuid.UUID, finalKey, codec string, durationMs int64) error {
	res, err := r.db.ExecContext(ctx, markProcessedQuery, trackID, finalKey, codec, durationMs)
	if err != nil {
		return errors.Wrapf(pipeline.ErrDBFailure, "mark track processed: %v", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return errors.Wrapf(pipeline.ErrNotFound, "no track %s to mark processed", trackID)
	}
	return nil
}

func (r *trackRepo) LatestProcessedByKind(ctx context.Context, recordingID uuid.UUID, kind models.TrackKind) (*models.Track, error) {
	track := &models.Track{}
	err := r.db.QueryRowxContext(ctx, latestProcessedByKindQuery, recordingID, kind).StructScan(track)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrDBFailure, "get latest processed track: %v", err)
	}
	return track, nil
}
