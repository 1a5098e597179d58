package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
)

type fakeTranscriptRepo struct {
	mu       sync.Mutex
	segments map[uuid.UUID][]*models.TranscriptSegment
	replaces int
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{segments: make(map[uuid.UUID][]*models.TranscriptSegment)}
}

func (r *fakeTranscriptRepo) ReplaceSegments(ctx context.Context, recordingID, trackID uuid.UUID, segments []*models.TranscriptSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces++
	stored := make([]*models.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		copied := *seg
		copied.RecordingID = recordingID
		copied.TrackID = trackID
		stored = append(stored, &copied)
	}
	r.segments[trackID] = stored
	return nil
}

func (r *fakeTranscriptRepo) GetSegmentsByRecording(ctx context.Context, recordingID uuid.UUID) ([]*models.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TranscriptSegment
	for _, segs := range r.segments {
		for _, seg := range segs {
			if seg.RecordingID == recordingID {
				out = append(out, seg)
			}
		}
	}
	return out, nil
}

func (r *fakeTranscriptRepo) GetSegmentsByTrack(ctx context.Context, trackID uuid.UUID) ([]*models.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segments[trackID], nil
}

type fakeRecognizer struct {
	segments []*models.TranscriptSegment
	err      error
	lastRef  string
	lastHint time.Duration
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, audioRef string, durationHint time.Duration) ([]*models.TranscriptSegment, error) {
	f.lastRef = audioRef
	f.lastHint = durationHint
	return f.segments, f.err
}

func processedTrack(trackRepo *fakeTrackRepo) *models.Track {
	finalKey := "recordings/r/tracks/t/final/t.wav"
	codec := "pcm_s16le"
	durationMs := int64(3000)
	track := &models.Track{
		TrackID:         uuid.New(),
		RecordingID:     uuid.New(),
		ParticipantID:   uuid.New(),
		Kind:            models.TrackKindAudio,
		State:           models.TrackStateProcessed,
		StorageKeyFinal: &finalKey,
		Codec:           &codec,
		DurationMs:      &durationMs,
	}
	trackRepo.add(track)
	return track
}

func TestASRExecutor_ReplacesPriorSegments(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	transcriptRepo := newFakeTranscriptRepo()
	track := processedTrack(trackRepo)

	recognizer := &fakeRecognizer{segments: []*models.TranscriptSegment{
		{StartMs: 0, EndMs: 1000, Text: "first pass"},
		{StartMs: 1000, EndMs: 2000, Text: "of two"},
	}}
	exec := NewASRExecutor(trackRepo, transcriptRepo, recognizer, newTestLogger())

	job := trackJob(t, track.TrackID)
	require.NoError(t, exec.Execute(context.Background(), job))
	assert.Equal(t, "recordings/r/tracks/t/final/t.wav", recognizer.lastRef)
	assert.Equal(t, 3*time.Second, recognizer.lastHint)

	// re-running swaps the whole set instead of appending
	recognizer.segments = []*models.TranscriptSegment{{StartMs: 0, EndMs: 2000, Text: "better pass"}}
	require.NoError(t, exec.Execute(context.Background(), job))

	stored, err := transcriptRepo.GetSegmentsByTrack(context.Background(), track.TrackID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "better pass", stored[0].Text)
	assert.Equal(t, 2, transcriptRepo.replaces)
}

func TestASRExecutor_UnprocessedTrackIsPermanent(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := &models.Track{
		TrackID:       uuid.New(),
		RecordingID:   uuid.New(),
		ParticipantID: uuid.New(),
		Kind:          models.TrackKindAudio,
		State:         models.TrackStateUploaded,
	}
	trackRepo.add(track)

	exec := NewASRExecutor(trackRepo, newFakeTranscriptRepo(), &fakeRecognizer{}, newTestLogger())
	err := exec.Execute(context.Background(), trackJob(t, track.TrackID))
	require.Error(t, err)
	assert.True(t, pipeline.Permanent(err))
}

func TestASRExecutor_RecognizerErrorIsTransient(t *testing.T) {
	trackRepo := newFakeTrackRepo()
	track := processedTrack(trackRepo)

	recognizer := &fakeRecognizer{err: assert.AnError}
	exec := NewASRExecutor(trackRepo, newFakeTranscriptRepo(), recognizer, newTestLogger())
	err := exec.Execute(context.Background(), trackJob(t, track.TrackID))
	require.Error(t, err)
	assert.False(t, pipeline.Permanent(err))
}
