package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/pkg/utils"
)

// Repository is the durable job queue. ClaimNextJob is the only way a job
// leaves the queued state and MarkSucceeded/MarkFailed are the only ways a
// running job is resolved; rows are never deleted.
type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	// CreateJobTx enqueues inside a caller-owned transaction so upstream
	// state commits and the job insert land atomically.
	CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *models.Job) (*models.Job, error)
	// ClaimNextJob atomically transitions the oldest queued job of the
	// given type to running and increments attempts. Returns (nil, nil)
	// when the queue is empty.
	ClaimNextJob(ctx context.Context, jobType models.JobType) (*models.Job, error)
	MarkSucceeded(ctx context.Context, jobID uuid.UUID) error
	// MarkFailed re-queues the job while attempts remain, moves it to
	// failed once the budget is spent, and to dead immediately for
	// permanent errors.
	MarkFailed(ctx context.Context, job *models.Job, jobErr error) error
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	GetJobsByRecording(ctx context.Context, recordingID uuid.UUID, pq *utils.Pagination) (*models.JobList, error)
}
