package tracks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/castforge/studio-backend/internal/models"
)

type Repository interface {
	CreateTrackTx(ctx context.Context, tx *sqlx.Tx, track *models.Track) (*models.Track, error)
	GetTrackByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error)
	// MarkProcessed sets the final storage key, detected codec, duration and
	// advances state to processed.
	MarkProcessed(ctx context.Context, trackID uuid.UUID, finalKey, codec string, durationMs int64) error
	// LatestProcessedByKind returns the recording's most recently processed
	// track of the given kind, or (nil, nil) when none exists.
	LatestProcessedByKind(ctx context.Context, recordingID uuid.UUID, kind models.TrackKind) (*models.Track, error)
}
