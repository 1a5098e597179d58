package uploads

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/castforge/studio-backend/internal/models"
)

type Repository interface {
	// CreateUploadWithTrack inserts the track and its upload session in one
	// transaction; exactly one upload exists per track-creation event.
	CreateUploadWithTrack(ctx context.Context, upload *models.Upload, track *models.Track) (*models.Upload, *models.Track, error)
	GetUploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)
	// FinalizeUpload commits upload completed + bytes, track uploaded + raw
	// key, and whatever enqueue inserts, as one transaction.
	FinalizeUpload(ctx context.Context, uploadID, trackID uuid.UUID, rawKey string, bytesReceived int64, enqueue func(ctx context.Context, tx *sqlx.Tx) error) error
	// MapExternalSession records the resumable server's session id for an
	// upload; both columns are unique, replays of the same pair are no-ops.
	MapExternalSession(ctx context.Context, uploadID uuid.UUID, externalSessionID string) error
	// GetExternalSession returns the mapped external session id, or ""
	// when the webhook never arrived.
	GetExternalSession(ctx context.Context, uploadID uuid.UUID) (string, error)
}
