package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/tracks"
	"github.com/castforge/studio-backend/internal/uploads"
	"github.com/castforge/studio-backend/pkg/logger"
	"github.com/castforge/studio-backend/pkg/utils"
)

const (
	defaultPartSize = 8 << 20
	minPartSize     = 5 << 20

	rawContentType = "application/octet-stream"
)

type uploadUC struct {
	cfg        *config.Config
	uploadRepo uploads.Repository
	s3Repo     uploads.S3Repository
	redisRepo  uploads.RedisRepository
	trackRepo  tracks.Repository
	jobRepo    jobs.Repository
	logger     logger.Logger
}

func NewUploadUseCase(
	cfg *config.Config,
	uploadRepo uploads.Repository,
	s3Repo uploads.S3Repository,
	redisRepo uploads.RedisRepository,
	trackRepo tracks.Repository,
	jobRepo jobs.Repository,
	log logger.Logger,
) uploads.UseCase {
	return &uploadUC{
		cfg:        cfg,
		uploadRepo: uploadRepo,
		s3Repo:     s3Repo,
		redisRepo:  redisRepo,
		trackRepo:  trackRepo,
		jobRepo:    jobRepo,
		logger:     log,
	}
}

// RawStorageKey is where finalized raw bytes live for a track, regardless
// of transport.
func RawStorageKey(recordingID, trackID, uploadID uuid.UUID) string {
	return fmt.Sprintf("recordings/%s/tracks/%s/raw/%s.bin", recordingID, trackID, uploadID)
}

func (u *uploadUC) InitiateUpload(ctx context.Context, input *models.InitiateUploadInput) (*models.UploadPlan, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("InitiateUpload - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	track := &models.Track{
		TrackID:       uuid.New(),
		RecordingID:   input.RecordingID,
		ParticipantID: input.ParticipantID,
		Kind:          input.Kind,
	}
	upload := &models.Upload{
		UploadID: uuid.New(),
		TrackID:  track.TrackID,
		Protocol: input.Protocol,
	}
	if input.Size > 0 {
		size := input.Size
		upload.ExpectedSize = &size
	}

	plan := &models.UploadPlan{
		UploadID: upload.UploadID,
		TrackID:  track.TrackID,
		Protocol: input.Protocol,
	}

	if input.Protocol == models.ProtocolMultipart {
		partSize := input.PartSize
		if partSize == 0 {
			partSize = u.cfg.Upload.DefaultPartSize
		}
		if partSize == 0 {
			partSize = defaultPartSize
		}
		if partSize < minPartSize {
			partSize = minPartSize
		}

		bucket := u.cfg.S3.RawBucket
		key := RawStorageKey(input.RecordingID, track.TrackID, upload.UploadID)

		multipartID, err := u.s3Repo.CreateMultipartUpload(ctx, bucket, key, rawContentType)
		if err != nil {
			u.logger.Errorf("InitiateUpload - CreateMultipartUpload error: %v", err)
			return nil, errors.Wrap(pipeline.ErrStorageFailure, err.Error())
		}

		partCount := int32((input.Size + partSize - 1) / partSize)
		partURLs := make([]models.PresignedPart, 0, partCount)
		for partNumber := int32(1); partNumber <= partCount; partNumber++ {
			url, err := u.s3Repo.PresignUploadPart(ctx, bucket, key, multipartID, partNumber)
			if err != nil {
				u.logger.Errorf("InitiateUpload - PresignUploadPart error: %v", err)
				return nil, errors.Wrap(pipeline.ErrStorageFailure, err.Error())
			}
			partURLs = append(partURLs, models.PresignedPart{PartNumber: partNumber, URL: url})
		}

		upload.StorageBucket = &bucket
		upload.ObjectKey = &key
		upload.MultipartID = &multipartID
		upload.PartSize = &partSize

		plan.Bucket = bucket
		plan.Key = key
		plan.PartSize = partSize
		plan.PartURLs = partURLs
	}

	createdUpload, createdTrack, err := u.uploadRepo.CreateUploadWithTrack(ctx, upload, track)
	if err != nil {
		u.logger.Errorf("InitiateUpload - CreateUploadWithTrack error: %v", err)
		return nil, err
	}
	plan.UploadID = createdUpload.UploadID
	plan.TrackID = createdTrack.TrackID

	u.logger.Infof("initiated %s upload %s for track %s", upload.Protocol, plan.UploadID, plan.TrackID)
	return plan, nil
}

func (u *uploadUC) CompleteUpload(ctx context.Context, uploadID uuid.UUID, input *models.CompleteUploadInput) (*models.CompleteUploadResult, error) {
	upload, err := u.uploadRepo.GetUploadByID(ctx, uploadID)
	if err != nil {
		return nil, errors.Wrap(err, "complete upload")
	}
	track, err := u.trackRepo.GetTrackByID(ctx, upload.TrackID)
	if err != nil {
		return nil, errors.Wrap(err, "complete upload")
	}

	var expectedKey string
	switch upload.Protocol {
	case models.ProtocolMultipart:
		if upload.ObjectKey == nil {
			return nil, fmt.Errorf("multipart upload %s has no object key", uploadID)
		}
		expectedKey = *upload.ObjectKey
	default:
		expectedKey = RawStorageKey(track.RecordingID, track.TrackID, upload.UploadID)
	}

	// Clients retry completion after timeouts; a finalized upload whose
	// track already carries the matching raw key is a replay, not an error.
	if upload.State == models.UploadStateCompleted {
		if track.StorageKeyRaw != nil && *track.StorageKeyRaw == expectedKey {
			return &models.CompleteUploadResult{
				BytesReceived:    upload.BytesReceived,
				RawStorageKey:    expectedKey,
				AlreadyCompleted: true,
			}, nil
		}
		return nil, fmt.Errorf("upload %s completed but track raw key does not match", uploadID)
	}

	var bytesReceived int64
	switch upload.Protocol {
	case models.ProtocolMultipart:
		bytesReceived, err = u.finalizeMultipart(ctx, upload, input)
	case models.ProtocolResumable:
		bytesReceived, err = u.finalizeResumable(ctx, upload, track, expectedKey, input)
	default:
		return nil, fmt.Errorf("unknown upload protocol %q", upload.Protocol)
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(models.TrackPayload{TrackID: track.TrackID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcode payload: %w", err)
	}
	err = u.uploadRepo.FinalizeUpload(ctx, upload.UploadID, track.TrackID, expectedKey, bytesReceived,
		func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := u.jobRepo.CreateJobTx(ctx, tx, &models.Job{
				RecordingID: track.RecordingID,
				Type:        models.JobTypeTranscode,
				Payload:     payload,
			})
			return err
		})
	if err != nil {
		u.logger.Errorf("CompleteUpload - FinalizeUpload error: %v", err)
		return nil, err
	}

	if err := u.redisRepo.DeleteProgress(ctx, upload.UploadID); err != nil {
		u.logger.Warnf("CompleteUpload - DeleteProgress error: %v", err)
	}

	u.logger.Infof("finalized %s upload %s (%d bytes) -> %s", upload.Protocol, upload.UploadID, bytesReceived, expectedKey)
	return &models.CompleteUploadResult{
		BytesReceived:    bytesReceived,
		RawStorageKey:    expectedKey,
		AlreadyCompleted: false,
	}, nil
}

func (u *uploadUC) finalizeMultipart(ctx context.Context, upload *models.Upload, input *models.CompleteUploadInput) (int64, error) {
	if upload.MultipartID == nil || upload.StorageBucket == nil || upload.ObjectKey == nil {
		return 0, fmt.Errorf("multipart upload %s has no persisted plan", upload.UploadID)
	}
	if input == nil || len(input.Parts) == 0 {
		return 0, fmt.Errorf("multipart completion requires the part manifest")
	}

	// Parts finish in arbitrary order; the storage API requires the
	// manifest ascending by part number.
	parts := make([]models.CompletedPart, len(input.Parts))
	copy(parts, input.Parts)
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	if err := u.s3Repo.CompleteMultipartUpload(ctx, *upload.StorageBucket, *upload.ObjectKey, *upload.MultipartID, parts); err != nil {
		return 0, errors.Wrap(pipeline.ErrStorageFailure, err.Error())
	}

	size, err := u.s3Repo.HeadObjectSize(ctx, *upload.StorageBucket, *upload.ObjectKey)
	if err != nil {
		return 0, errors.Wrap(pipeline.ErrStorageFailure, err.Error())
	}
	if expected := expectedBytes(upload, input); expected > 0 && size != expected {
		return 0, errors.Wrapf(pipeline.ErrSizeMismatch, "expected %d bytes, object has %d", expected, size)
	}
	return size, nil
}

func expectedBytes(upload *models.Upload, input *models.CompleteUploadInput) int64 {
	if input != nil && input.ExpectedBytes > 0 {
		return input.ExpectedBytes
	}
	if upload.ExpectedSize != nil {
		return *upload.ExpectedSize
	}
	return 0
}

func (u *uploadUC) RegisterExternalSession(ctx context.Context, input *models.ResumableHookInput) error {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return fmt.Errorf("invalid input: %v", err)
	}
	return u.uploadRepo.MapExternalSession(ctx, input.UploadID, input.ExternalSessionID)
}

func (u *uploadUC) RecordProgress(ctx context.Context, uploadID uuid.UUID, bytesReceived int64) error {
	return u.redisRepo.SetProgress(ctx, uploadID, bytesReceived)
}

func (u *uploadUC) GetUploadStatus(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	upload, err := u.uploadRepo.GetUploadByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.State == models.UploadStateInProgress {
		if cached, ok, err := u.redisRepo.GetProgress(ctx, uploadID); err == nil && ok && cached > upload.BytesReceived {
			upload.BytesReceived = cached
		}
	}
	return upload, nil
}
