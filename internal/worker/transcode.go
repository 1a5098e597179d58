package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/tracks"
	"github.com/castforge/studio-backend/internal/uploads"
	"github.com/castforge/studio-backend/pkg/logger"
)

// TranscodeExecutor normalizes one raw track into its final playable form
// and chains an asr job for the recording.
type TranscodeExecutor struct {
	cfg       *config.Config
	trackRepo tracks.Repository
	jobRepo   jobs.Repository
	s3Repo    uploads.S3Repository
	media     Processor
	logger    logger.Logger
}

func NewTranscodeExecutor(cfg *config.Config, trackRepo tracks.Repository, jobRepo jobs.Repository, s3Repo uploads.S3Repository, media Processor, log logger.Logger) *TranscodeExecutor {
	return &TranscodeExecutor{
		cfg:       cfg,
		trackRepo: trackRepo,
		jobRepo:   jobRepo,
		s3Repo:    s3Repo,
		media:     media,
		logger:    log,
	}
}

func (e *TranscodeExecutor) Execute(ctx context.Context, job *models.Job) error {
	var payload models.TrackPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return errors.Wrapf(pipeline.ErrBadPayload, "transcode payload: %v", err)
	}
	if payload.TrackID == uuid.Nil {
		return errors.Wrap(pipeline.ErrBadPayload, "transcode payload: missing track_id")
	}

	track, err := e.trackRepo.GetTrackByID(ctx, payload.TrackID)
	if err != nil {
		return errors.Wrap(err, "transcode: load track")
	}
	if track.StorageKeyRaw == nil {
		return errors.Wrapf(pipeline.ErrNotFound, "track %s has no raw upload", track.TrackID)
	}

	workDir, err := os.MkdirTemp("", "transcode_")
	if err != nil {
		return errors.Wrap(err, "transcode: create work dir")
	}
	defer os.RemoveAll(workDir)

	inputPath, err := e.resolveRaw(ctx, *track.StorageKeyRaw, workDir)
	if err != nil {
		return err
	}

	info, err := e.media.Probe(ctx, inputPath)
	if err != nil {
		return err
	}

	ext := ".wav"
	convert := e.media.ConvertAudio
	contentType := "audio/wav"
	if info.Kind == models.TrackKindVideo {
		ext = ".mp4"
		convert = e.media.ConvertVideo
		contentType = "video/mp4"
	}

	outputPath := filepath.Join(workDir, "final"+ext)
	if err := convert(ctx, inputPath, outputPath); err != nil {
		return err
	}

	finalKey := fmt.Sprintf("recordings/%s/tracks/%s/final/%s%s",
		track.RecordingID, track.TrackID, track.TrackID, ext)
	if err := e.uploadFinal(ctx, outputPath, finalKey, contentType); err != nil {
		return err
	}

	if err := e.trackRepo.MarkProcessed(ctx, track.TrackID, finalKey, info.Codec, info.DurationMs); err != nil {
		return errors.Wrapf(err, "transcode: finish track %s", track.TrackID)
	}

	asrPayload, err := json.Marshal(models.TrackPayload{TrackID: track.TrackID})
	if err != nil {
		return errors.Wrap(err, "marshal asr payload")
	}
	if _, err := e.jobRepo.CreateJob(ctx, &models.Job{
		RecordingID: track.RecordingID,
		Type:        models.JobTypeASR,
		Payload:     asrPayload,
	}); err != nil {
		return errors.Wrapf(pipeline.ErrDBFailure, "enqueue asr job: %v", err)
	}

	e.logger.Infof("transcoded track %s (%s, %s, %dms) to %s",
		track.TrackID, info.Kind, info.Codec, info.DurationMs, finalKey)
	return nil
}

// resolveRaw makes the raw object available as a local file. Keys that
// resolve under the local storage dir are used in place; anything else is
// streamed down from the raw bucket into workDir.
func (e *TranscodeExecutor) resolveRaw(ctx context.Context, rawKey, workDir string) (string, error) {
	localPath := filepath.Join(e.cfg.Storage.Dir, rawKey)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	body, err := e.s3Repo.GetObject(ctx, e.cfg.S3.RawBucket, rawKey)
	if err != nil {
		return "", errors.Wrapf(pipeline.ErrStorageFailure, "fetch raw object %s: %v", rawKey, err)
	}
	defer body.Close()

	inputPath := filepath.Join(workDir, "raw"+filepath.Ext(rawKey))
	out, err := os.Create(inputPath)
	if err != nil {
		return "", errors.Wrap(err, "transcode: create raw temp file")
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return "", errors.Wrapf(pipeline.ErrStorageFailure, "download raw object %s: %v", rawKey, err)
	}
	return inputPath, nil
}

func (e *TranscodeExecutor) uploadFinal(ctx context.Context, path, key, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "transcode: open output")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "transcode: stat output")
	}

	if err := e.s3Repo.PutObject(ctx, e.cfg.S3.FinalBucket, key, f, stat.Size(), contentType); err != nil {
		return errors.Wrapf(pipeline.ErrStorageFailure, "upload final object %s: %v", key, err)
	}
	return nil
}
