package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/tracks"
	"github.com/castforge/studio-backend/internal/transcripts"
	"github.com/castforge/studio-backend/pkg/logger"
)

// ASRExecutor transcribes one processed track and replaces its stored
// segment set. Re-running is safe: the replace is all-or-nothing.
type ASRExecutor struct {
	trackRepo      tracks.Repository
	transcriptRepo transcripts.Repository
	recognizer     transcripts.Recognizer
	logger         logger.Logger
}

func NewASRExecutor(trackRepo tracks.Repository, transcriptRepo transcripts.Repository, recognizer transcripts.Recognizer, log logger.Logger) *ASRExecutor {
	return &ASRExecutor{
		trackRepo:      trackRepo,
		transcriptRepo: transcriptRepo,
		recognizer:     recognizer,
		logger:         log,
	}
}

func (e *ASRExecutor) Execute(ctx context.Context, job *models.Job) error {
	var payload models.TrackPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return errors.Wrapf(pipeline.ErrBadPayload, "asr payload: %v", err)
	}
	if payload.TrackID == uuid.Nil {
		return errors.Wrap(pipeline.ErrBadPayload, "asr payload: missing track_id")
	}

	track, err := e.trackRepo.GetTrackByID(ctx, payload.TrackID)
	if err != nil {
		return errors.Wrap(err, "asr: load track")
	}
	if track.StorageKeyFinal == nil {
		return errors.Wrapf(pipeline.ErrNotFound, "track %s has no processed media", track.TrackID)
	}

	var hint time.Duration
	if track.DurationMs != nil {
		hint = time.Duration(*track.DurationMs) * time.Millisecond
	}

	segments, err := e.recognizer.Transcribe(ctx, *track.StorageKeyFinal, hint)
	if err != nil {
		return err
	}

	if err := e.transcriptRepo.ReplaceSegments(ctx, track.RecordingID, track.TrackID, segments); err != nil {
		return errors.Wrapf(pipeline.ErrDBFailure, "replace segments for track %s: %v", track.TrackID, err)
	}

	e.logger.Infof("transcribed track %s: %d segments", track.TrackID, len(segments))
	return nil
}
