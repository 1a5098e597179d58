package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/exports"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/pkg/logger"
	"github.com/castforge/studio-backend/pkg/utils"
)

func newTestLogger() logger.Logger {
	log := logger.NewApiLogger(&config.Config{})
	log.InitLogger()
	return log
}

type fakeExportRepo struct {
	mu        sync.Mutex
	artifacts map[uuid.UUID]*models.ExportArtifact
	creates   int
	// hideActive makes the next N active-artifact reads come back empty,
	// the window a concurrent requester sees before an insert is visible.
	hideActive int
}

func newFakeExportRepo() *fakeExportRepo {
	return &fakeExportRepo{artifacts: make(map[uuid.UUID]*models.ExportArtifact)}
}

func (r *fakeExportRepo) CreateExport(ctx context.Context, artifact *models.ExportArtifact, enqueue func(ctx context.Context, tx *sqlx.Tx) error) (*models.ExportArtifact, error) {
	r.mu.Lock()
	r.creates++
	for _, existing := range r.artifacts {
		if existing.RecordingID == artifact.RecordingID && existing.Type == artifact.Type && existing.State != models.ExportStateFailed {
			r.mu.Unlock()
			return nil, errors.Wrapf(exports.ErrActiveExists, "recording %s type %s", artifact.RecordingID, artifact.Type)
		}
	}
	artifact.State = models.ExportStateQueued
	r.artifacts[artifact.ExportID] = artifact
	r.mu.Unlock()
	if err := enqueue(ctx, nil); err != nil {
		return nil, err
	}
	return artifact, nil
}

func (r *fakeExportRepo) GetExportByID(ctx context.Context, exportID uuid.UUID) (*models.ExportArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	artifact, ok := r.artifacts[exportID]
	if !ok {
		return nil, errors.Wrapf(pipeline.ErrNotFound, "export %s", exportID)
	}
	return artifact, nil
}

func (r *fakeExportRepo) GetActiveExport(ctx context.Context, recordingID uuid.UUID, exportType models.ExportType) (*models.ExportArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideActive > 0 {
		r.hideActive--
		return nil, nil
	}
	for _, artifact := range r.artifacts {
		if artifact.RecordingID == recordingID && artifact.Type == exportType && artifact.State != models.ExportStateFailed {
			return artifact, nil
		}
	}
	return nil, nil
}

func (r *fakeExportRepo) MarkRunning(ctx context.Context, exportID uuid.UUID) error { return nil }

func (r *fakeExportRepo) MarkSucceeded(ctx context.Context, exportID uuid.UUID, storageKey string) error {
	return nil
}

func (r *fakeExportRepo) MarkFailed(ctx context.Context, exportID uuid.UUID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	artifact := r.artifacts[exportID]
	artifact.State = models.ExportStateFailed
	artifact.LastError = &errMsg
	return nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs []*models.Job
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return job, nil
}

func (r *fakeJobRepo) CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *models.Job) (*models.Job, error) {
	return r.CreateJob(ctx, job)
}

func (r *fakeJobRepo) ClaimNextJob(ctx context.Context, jobType models.JobType) (*models.Job, error) {
	return nil, nil
}

func (r *fakeJobRepo) MarkSucceeded(ctx context.Context, jobID uuid.UUID) error { return nil }

func (r *fakeJobRepo) MarkFailed(ctx context.Context, job *models.Job, jobErr error) error {
	return nil
}

func (r *fakeJobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return nil, fmt.Errorf("job %s not found", jobID)
}

func (r *fakeJobRepo) GetJobsByRecording(ctx context.Context, recordingID uuid.UUID, pq *utils.Pagination) (*models.JobList, error) {
	return &models.JobList{}, nil
}

func TestRequestExport_CreatesArtifactAndJob(t *testing.T) {
	exportRepo := newFakeExportRepo()
	jobRepo := &fakeJobRepo{}
	uc := NewExportUseCase(exportRepo, jobRepo, newTestLogger())

	recordingID := uuid.New()
	artifact, err := uc.RequestExport(context.Background(), &models.ExportRequestInput{
		RecordingID: recordingID,
		Type:        models.ExportTypeWAV,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStateQueued, artifact.State)

	require.Len(t, jobRepo.jobs, 1)
	assert.Equal(t, models.JobTypeExport, jobRepo.jobs[0].Type)
	assert.Equal(t, recordingID, jobRepo.jobs[0].RecordingID)
	var payload models.ExportPayload
	require.NoError(t, json.Unmarshal(jobRepo.jobs[0].Payload, &payload))
	assert.Equal(t, artifact.ExportID, payload.ExportID)
}

func TestRequestExport_DedupsActiveArtifact(t *testing.T) {
	exportRepo := newFakeExportRepo()
	jobRepo := &fakeJobRepo{}
	uc := NewExportUseCase(exportRepo, jobRepo, newTestLogger())

	input := &models.ExportRequestInput{RecordingID: uuid.New(), Type: models.ExportTypeMP4}
	first, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)

	second, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ExportID, second.ExportID)
	assert.Equal(t, 1, exportRepo.creates)
	assert.Len(t, jobRepo.jobs, 1)
}

func TestRequestExport_InsertRaceReturnsWinner(t *testing.T) {
	exportRepo := newFakeExportRepo()
	jobRepo := &fakeJobRepo{}
	uc := NewExportUseCase(exportRepo, jobRepo, newTestLogger())

	input := &models.ExportRequestInput{RecordingID: uuid.New(), Type: models.ExportTypeWAV}
	first, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)

	// The loser's dedup read lands before the winner's insert is visible,
	// so it proceeds to insert and loses on the unique constraint.
	exportRepo.hideActive = 1
	second, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ExportID, second.ExportID)
	assert.Equal(t, 2, exportRepo.creates)
	assert.Len(t, exportRepo.artifacts, 1)
	assert.Len(t, jobRepo.jobs, 1)
}

func TestRequestExport_FailedArtifactAllowsRetry(t *testing.T) {
	exportRepo := newFakeExportRepo()
	jobRepo := &fakeJobRepo{}
	uc := NewExportUseCase(exportRepo, jobRepo, newTestLogger())

	input := &models.ExportRequestInput{RecordingID: uuid.New(), Type: models.ExportTypeMP4Captions}
	first, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, exportRepo.MarkFailed(context.Background(), first.ExportID, "mux exploded"))

	second, err := uc.RequestExport(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, first.ExportID, second.ExportID)
	assert.Equal(t, 2, exportRepo.creates)
}

func TestRequestExport_RejectsUnknownType(t *testing.T) {
	uc := NewExportUseCase(newFakeExportRepo(), &fakeJobRepo{}, newTestLogger())
	_, err := uc.RequestExport(context.Background(), &models.ExportRequestInput{
		RecordingID: uuid.New(),
		Type:        models.ExportType("flac"),
	})
	require.Error(t, err)
}
