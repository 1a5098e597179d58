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
	"github.com/castforge/studio-backend/internal/exports"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/tracks"
	"github.com/castforge/studio-backend/internal/transcripts"
	"github.com/castforge/studio-backend/internal/uploads"
	"github.com/castforge/studio-backend/pkg/logger"
)

const exportErrorLimit = 8000

// ExportExecutor materializes one requested artifact. Plain wav/mp4
// exports reference the source track's final object; mp4_captions builds
// a WebVTT file from the transcript and muxes it into a new object.
type ExportExecutor struct {
	cfg            *config.Config
	exportRepo     exports.Repository
	trackRepo      tracks.Repository
	transcriptRepo transcripts.Repository
	s3Repo         uploads.S3Repository
	media          Processor
	logger         logger.Logger
}

func NewExportExecutor(cfg *config.Config, exportRepo exports.Repository, trackRepo tracks.Repository, transcriptRepo transcripts.Repository, s3Repo uploads.S3Repository, media Processor, log logger.Logger) *ExportExecutor {
	return &ExportExecutor{
		cfg:            cfg,
		exportRepo:     exportRepo,
		trackRepo:      trackRepo,
		transcriptRepo: transcriptRepo,
		s3Repo:         s3Repo,
		media:          media,
		logger:         log,
	}
}

func (e *ExportExecutor) Execute(ctx context.Context, job *models.Job) error {
	var payload models.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return errors.Wrapf(pipeline.ErrBadPayload, "export payload: %v", err)
	}
	if payload.ExportID == uuid.Nil {
		return errors.Wrap(pipeline.ErrBadPayload, "export payload: missing export_id")
	}

	artifact, err := e.exportRepo.GetExportByID(ctx, payload.ExportID)
	if err != nil {
		return errors.Wrap(err, "export: load artifact")
	}
	if artifact.State == models.ExportStateSucceeded && artifact.StorageKey != nil {
		e.logger.Infof("export %s already produced at %s", artifact.ExportID, *artifact.StorageKey)
		return nil
	}

	if err := e.exportRepo.MarkRunning(ctx, artifact.ExportID); err != nil {
		return errors.Wrapf(pipeline.ErrDBFailure, "mark export %s running: %v", artifact.ExportID, err)
	}

	storageKey, err := e.produce(ctx, artifact)
	if err != nil {
		msg := err.Error()
		if len(msg) > exportErrorLimit {
			msg = msg[:exportErrorLimit]
		}
		if markErr := e.exportRepo.MarkFailed(ctx, artifact.ExportID, msg); markErr != nil {
			e.logger.Errorf("mark export %s failed: %v", artifact.ExportID, markErr)
		}
		return err
	}

	if err := e.exportRepo.MarkSucceeded(ctx, artifact.ExportID, storageKey); err != nil {
		return errors.Wrapf(pipeline.ErrDBFailure, "mark export %s succeeded: %v", artifact.ExportID, err)
	}

	e.logger.Infof("export %s (%s) produced at %s", artifact.ExportID, artifact.Type, storageKey)
	return nil
}

func (e *ExportExecutor) produce(ctx context.Context, artifact *models.ExportArtifact) (string, error) {
	kind := models.TrackKindVideo
	if artifact.Type == models.ExportTypeWAV {
		kind = models.TrackKindAudio
	}

	track, err := e.trackRepo.LatestProcessedByKind(ctx, artifact.RecordingID, kind)
	if err != nil {
		return "", errors.Wrapf(err, "export: look up %s track", kind)
	}
	if track == nil || track.StorageKeyFinal == nil {
		return "", errors.Wrapf(pipeline.ErrNotFound, "recording %s has no processed %s track", artifact.RecordingID, kind)
	}

	if artifact.Type != models.ExportTypeMP4Captions {
		return *track.StorageKeyFinal, nil
	}

	return e.produceCaptioned(ctx, artifact, track)
}

func (e *ExportExecutor) produceCaptioned(ctx context.Context, artifact *models.ExportArtifact, track *models.Track) (string, error) {
	segments, err := e.transcriptRepo.GetSegmentsByRecording(ctx, artifact.RecordingID)
	if err != nil {
		return "", errors.Wrapf(pipeline.ErrDBFailure, "load transcript for %s: %v", artifact.RecordingID, err)
	}
	if len(segments) == 0 {
		return "", errors.Wrapf(pipeline.ErrNotFound, "recording %s has no transcript", artifact.RecordingID)
	}

	workDir, err := os.MkdirTemp("", "export_")
	if err != nil {
		return "", errors.Wrap(err, "export: create work dir")
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "source.mp4")
	if err := e.download(ctx, *track.StorageKeyFinal, inputPath); err != nil {
		return "", err
	}

	captionsPath := filepath.Join(workDir, "captions.vtt")
	if err := os.WriteFile(captionsPath, []byte(BuildWebVTT(segments)), 0644); err != nil {
		return "", errors.Wrap(err, "export: write captions file")
	}

	outputPath := filepath.Join(workDir, "captioned.mp4")
	if err := e.media.MuxCaptions(ctx, inputPath, captionsPath, outputPath); err != nil {
		return "", err
	}

	storageKey := fmt.Sprintf("recordings/%s/exports/%s.mp4", artifact.RecordingID, artifact.ExportID)
	if err := e.upload(ctx, outputPath, storageKey); err != nil {
		return "", err
	}
	return storageKey, nil
}

func (e *ExportExecutor) download(ctx context.Context, key, path string) error {
	body, err := e.s3Repo.GetObject(ctx, e.cfg.S3.FinalBucket, key)
	if err != nil {
		return errors.Wrapf(pipeline.ErrStorageFailure, "fetch final object %s: %v", key, err)
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export: create source temp file")
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return errors.Wrapf(pipeline.ErrStorageFailure, "download final object %s: %v", key, err)
	}
	return nil
}

func (e *ExportExecutor) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "export: open output")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "export: stat output")
	}

	if err := e.s3Repo.PutObject(ctx, e.cfg.S3.FinalBucket, key, f, stat.Size(), "video/mp4"); err != nil {
		return errors.Wrapf(pipeline.ErrStorageFailure, "upload export object %s: %v", key, err)
	}
	return nil
}
