package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/pkg/utils"
)

// last_error is capped so a dumped stack trace cannot bloat the row.
const maxErrorLen = 8000

type jobRepo struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) jobs.Repository {
	return &jobRepo{
		db: db,
	}
}

func (r *jobRepo) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.JobID == uuid.Nil {
		job.JobID = uuid.New()
	}
	created := &models.Job{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.JobID,
		job.RecordingID,
		job.Type,
		job.Payload,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return created, nil
}

func (r *jobRepo) CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *models.Job) (*models.Job, error) {
	if job.JobID == uuid.Nil {
		job.JobID = uuid.New()
	}
	created := &models.Job{}
	if err := tx.QueryRowxContext(
		ctx,
		createJobQuery,
		job.JobID,
		job.RecordingID,
		job.Type,
		job.Payload,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create job in tx: %w", err)
	}
	return created, nil
}

func (r *jobRepo) ClaimNextJob(ctx context.Context, jobType models.JobType) (*models.Job, error) {
	job := &models.Job{}
	err := r.db.QueryRowxContext(ctx, claimNextJobQuery, jobType).StructScan(job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

func (r *jobRepo) MarkSucceeded(ctx context.Context, jobID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, markSucceededQuery, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job succeeded: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no running job %s to resolve", jobID)
	}
	return nil
}

// failureState decides where a failed running job lands: dead for
// permanent errors, failed once the attempt budget is spent, queued for
// another retry otherwise.
func failureState(job *models.Job, jobErr error) models.JobState {
	switch {
	case pipeline.Permanent(jobErr):
		return models.JobStateDead
	case job.Attempts >= models.MaxJobAttempts:
		return models.JobStateFailed
	default:
		return models.JobStateQueued
	}
}

func truncateError(jobErr error) string {
	msg := jobErr.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}

func (r *jobRepo) MarkFailed(ctx context.Context, job *models.Job, jobErr error) error {
	state := failureState(job, jobErr)
	msg := truncateError(jobErr)

	res, err := r.db.ExecContext(ctx, markFailedQuery, job.JobID, state, msg)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no running job %s to resolve", job.JobID)
	}
	return nil
}

func (r *jobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job := &models.Job{}
	if err := r.db.QueryRowxContext(ctx, getJobByIDQuery, jobID).StructScan(job); err != nil {
		return nil, fmt.Errorf("failed to get job by id: %w", err)
	}
	return job, nil
}

func (r *jobRepo) GetJobsByRecording(ctx context.Context, recordingID uuid.UUID, pq *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalJobsByRecordingQuery, recordingID); err != nil {
		return nil, fmt.Errorf("failed to get total jobs count: %w", err)
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.Job, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := r.db.QueryxContext(ctx, getJobsByRecordingQuery, recordingID, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs by recording: %w", err)
	}
	defer rows.Close()
	jobList := make([]*models.Job, 0, pq.GetSize())
	for rows.Next() {
		var j models.Job
		if err = rows.StructScan(&j); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobList = append(jobList, &j)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	return &models.JobList{
		Jobs:       jobList,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}
