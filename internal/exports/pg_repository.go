package exports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
)

// ErrActiveExists reports that another artifact for the same
// (recording, type) pair is already queued, running or succeeded.
var ErrActiveExists = errors.New("active export already exists")

type Repository interface {
	// CreateExport inserts the artifact and whatever enqueue inserts in one
	// transaction. A concurrent insert for the same (recording, type) pair
	// loses with ErrActiveExists.
	CreateExport(ctx context.Context, artifact *models.ExportArtifact, enqueue func(ctx context.Context, tx *sqlx.Tx) error) (*models.ExportArtifact, error)
	GetExportByID(ctx context.Context, exportID uuid.UUID) (*models.ExportArtifact, error)
	// GetActiveExport returns the queued/running/succeeded artifact for the
	// (recording, type) pair, or (nil, nil) when none exists.
	GetActiveExport(ctx context.Context, recordingID uuid.UUID, exportType models.ExportType) (*models.ExportArtifact, error)
	MarkRunning(ctx context.Context, exportID uuid.UUID) error
	MarkSucceeded(ctx context.Context, exportID uuid.UUID, storageKey string) error
	MarkFailed(ctx context.Context, exportID uuid.UUID, errMsg string) error
}
