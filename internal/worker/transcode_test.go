package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
)

type fakeTrackRepo struct {
	mu     sync.Mutex
	tracks map[uuid.UUID]*models.Track
	getErr error
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{tracks: make(map[uuid.UUID]*models.Track)}
}

func (r *fakeTrackRepo) add(track *models.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[track.TrackID] = track
}

func (r *fakeTrackRepo) CreateTrackTx(ctx context.Context, tx *sqlx.Tx, track *models.Track) (*models.Track, error) {
	r.add(track)
	return track, nil
}

func (r *fakeTrackRepo) GetTrackByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	track, ok := r.tracks[trackID]
	if !ok {
		return nil, errors.Wrapf(pipeline.ErrNotFound, "track %s", trackID)
	}
	copied := *track
	return &copied, nil
}

func (r *fakeTrackRepo) MarkProcessed(ctx context.Context, trackID uuid.UUID, finalKey, codec string, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.tracks[trackID]
	if !ok {
		return fmt.Errorf("track %s not found", trackID)
	}
	track.State = models.TrackStateProcessed
	track.StorageKeyFinal = &finalKey
	track.Codec = &codec
	track.DurationMs = &durationMs
	return nil
}

func (r *fakeTrackRepo) LatestProcessedByKind(ctx context.Context, recordingID uuid.UUID, kind models.TrackKind) (*models.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Track
	for _, track := range r.tracks {
		if track.RecordingID == recordingID && track.Kind == kind && track.State == models.TrackStateProcessed {
			if latest == nil || track.UpdatedAt.After(latest.UpdatedAt) {
				latest = track
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

type fakeS3 struct {
	mu             sync.Mutex
	objects        map[string][]byte
	completedParts []models.CompletedPart
	headSize       int64
	headSizeSet    bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (s *fakeS3) objectKey(bucket, key string) string { return bucket + "/" + key }

func (s *fakeS3) put(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[s.objectKey(bucket, key)] = data
}

func (s *fakeS3) has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[s.objectKey(bucket, key)]
	return ok
}

func (s *fakeS3) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	return "mpu-" + key, nil
}

func (s *fakeS3) PresignUploadPart(ctx context.Context, bucket, key, multipartID string, partNumber int32) (string, error) {
	return fmt.Sprintf("https://storage.test/%s/%s?partNumber=%d", bucket, key, partNumber), nil
}

func (s *fakeS3) CompleteMultipartUpload(ctx context.Context, bucket, key, multipartID string, parts []models.CompletedPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedParts = append([]models.CompletedPart(nil), parts...)
	s.objects[s.objectKey(bucket, key)] = []byte("assembled")
	return nil
}

func (s *fakeS3) HeadObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headSizeSet {
		return s.headSize, nil
	}
	data, ok := s.objects[s.objectKey(bucket, key)]
	if !ok {
		return 0, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return int64(len(data)), nil
}

func (s *fakeS3) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.put(bucket, key, data)
	return nil
}

func (s *fakeS3) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[s.objectKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeS3) RemoveObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, s.objectKey(bucket, key))
	return nil
}

type fakeProcessor struct {
	mu          sync.Mutex
	probeResult MediaInfo
	audioCalls  int
	videoCalls  int
	muxCalls    int
}

func (p *fakeProcessor) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	info := p.probeResult
	return &info, nil
}

func (p *fakeProcessor) ConvertAudio(ctx context.Context, inputPath, outputPath string) error {
	p.mu.Lock()
	p.audioCalls++
	p.mu.Unlock()
	return os.WriteFile(outputPath, []byte("wav-bytes"), 0644)
}

func (p *fakeProcessor) ConvertVideo(ctx context.Context, inputPath, outputPath string) error {
	p.mu.Lock()
	p.videoCalls++
	p.mu.Unlock()
	return os.WriteFile(outputPath, []byte("mp4-bytes"), 0644)
}

func (p *fakeProcessor) MuxCaptions(ctx context.Context, inputPath, captionsPath, outputPath string) error {
	p.mu.Lock()
	p.muxCalls++
	p.mu.Unlock()
	return os.WriteFile(outputPath, []byte("captioned-bytes"), 0644)
}

func transcodeTestConfig(t *testing.T) *config.Config {
	return &config.Config{
		S3:      config.S3Config{RawBucket: "raw", FinalBucket: "final"},
		Storage: config.StorageConfig{Dir: t.TempDir()},
	}
}

func seedUploadedTrack(t *testing.T, cfg *config.Config, trackRepo *fakeTrackRepo, kind models.TrackKind) *models.Track {
	t.Helper()
	rawKey := fmt.Sprintf("recordings/%s/tracks/%s/raw/%s.bin", uuid.New(), uuid.New(), uuid.New())
	localPath := filepath.Join(cfg.Storage.Dir, rawKey)
	require.NoError(t, os.MkdirAll(filepath.Dir(localPath), 0o755))
	require.NoError(t, os.WriteFile(localPath, []byte("raw-bytes"), 0644))

	track := &models.Track{
		TrackID:       uuid.New(),
		RecordingID:   uuid.New(),
		ParticipantID: uuid.New(),
		Kind:          kind,
		State:         models.TrackStateUploaded,
		StorageKeyRaw: &rawKey,
	}
	trackRepo.add(track)
	return track
}

func trackJob(t *testing.T, trackID uuid.UUID) *models.Job {
	t.Helper()
	payload, err := json.Marshal(models.TrackPayload{TrackID: trackID})
	require.NoError(t, err)
	return &models.Job{
		JobID:    uuid.New(),
		Type:     models.JobTypeTranscode,
		Payload:  payload,
		State:    models.JobStateRunning,
		Attempts: 1,
	}
}

func TestTranscodeExecutor_AudioTrack(t *testing.T) {
	cfg := transcodeTestConfig(t)
	trackRepo := newFakeTrackRepo()
	jobStore := newFakeJobStore()
	s3 := newFakeS3()
	media := &fakeProcessor{probeResult: MediaInfo{Kind: models.TrackKindAudio, Codec: "opus", DurationMs: 42000}}

	track := seedUploadedTrack(t, cfg, trackRepo, models.TrackKindAudio)
	exec := NewTranscodeExecutor(cfg, trackRepo, jobStore, s3, media, newTestLogger())

	err := exec.Execute(context.Background(), trackJob(t, track.TrackID))
	require.NoError(t, err)

	assert.Equal(t, 1, media.audioCalls)
	assert.Zero(t, media.videoCalls)

	processed, err := trackRepo.GetTrackByID(context.Background(), track.TrackID)
	require.NoError(t, err)
	assert.Equal(t, models.TrackStateProcessed, processed.State)
	require.NotNil(t, processed.StorageKeyFinal)
	expectedKey := fmt.Sprintf("recordings/%s/tracks/%s/final/%s.wav", track.RecordingID, track.TrackID, track.TrackID)
	assert.Equal(t, expectedKey, *processed.StorageKeyFinal)
	assert.Equal(t, "opus", *processed.Codec)
	assert.Equal(t, int64(42000), *processed.DurationMs)
	assert.True(t, s3.has("final", expectedKey))

	// a follow-up asr job for the same track must be queued
	asrJob, err := jobStore.ClaimNextJob(context.Background(), models.JobTypeASR)
	require.NoError(t, err)
	require.NotNil(t, asrJob)
	var asrPayload models.TrackPayload
	require.NoError(t, json.Unmarshal(asrJob.Payload, &asrPayload))
	assert.Equal(t, track.TrackID, asrPayload.TrackID)
	assert.Equal(t, track.RecordingID, asrJob.RecordingID)
}

func TestTranscodeExecutor_VideoTrack(t *testing.T) {
	cfg := transcodeTestConfig(t)
	trackRepo := newFakeTrackRepo()
	jobStore := newFakeJobStore()
	s3 := newFakeS3()
	media := &fakeProcessor{probeResult: MediaInfo{Kind: models.TrackKindVideo, Codec: "vp8", DurationMs: 90000}}

	track := seedUploadedTrack(t, cfg, trackRepo, models.TrackKindVideo)
	exec := NewTranscodeExecutor(cfg, trackRepo, jobStore, s3, media, newTestLogger())

	err := exec.Execute(context.Background(), trackJob(t, track.TrackID))
	require.NoError(t, err)

	assert.Equal(t, 1, media.videoCalls)
	processed, _ := trackRepo.GetTrackByID(context.Background(), track.TrackID)
	require.NotNil(t, processed.StorageKeyFinal)
	assert.Contains(t, *processed.StorageKeyFinal, ".mp4")
}

func TestTranscodeExecutor_DownloadsRawFromObjectStorage(t *testing.T) {
	cfg := transcodeTestConfig(t)
	trackRepo := newFakeTrackRepo()
	jobStore := newFakeJobStore()
	s3 := newFakeS3()
	media := &fakeProcessor{probeResult: MediaInfo{Kind: models.TrackKindAudio, Codec: "aac", DurationMs: 1000}}

	rawKey := "recordings/r/tracks/t/raw/u.bin"
	s3.put("raw", rawKey, []byte("remote-raw-bytes"))
	track := &models.Track{
		TrackID:       uuid.New(),
		RecordingID:   uuid.New(),
		ParticipantID: uuid.New(),
		Kind:          models.TrackKindAudio,
		State:         models.TrackStateUploaded,
		StorageKeyRaw: &rawKey,
	}
	trackRepo.add(track)

	exec := NewTranscodeExecutor(cfg, trackRepo, jobStore, s3, media, newTestLogger())
	err := exec.Execute(context.Background(), trackJob(t, track.TrackID))
	require.NoError(t, err)
	assert.Equal(t, 1, media.audioCalls)
}

func TestTranscodeExecutor_BadPayloadIsPermanent(t *testing.T) {
	cfg := transcodeTestConfig(t)
	exec := NewTranscodeExecutor(cfg, newFakeTrackRepo(), newFakeJobStore(), newFakeS3(), &fakeProcessor{}, newTestLogger())

	err := exec.Execute(context.Background(), &models.Job{Payload: json.RawMessage(`"garbage"`)})
	require.Error(t, err)
	assert.True(t, pipeline.Permanent(err))

	err = exec.Execute(context.Background(), &models.Job{Payload: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.True(t, pipeline.Permanent(err))
}

func TestTranscodeExecutor_MissingTrackIsPermanent(t *testing.T) {
	cfg := transcodeTestConfig(t)
	exec := NewTranscodeExecutor(cfg, newFakeTrackRepo(), newFakeJobStore(), newFakeS3(), &fakeProcessor{}, newTestLogger())

	err := exec.Execute(context.Background(), trackJob(t, uuid.New()))
	require.Error(t, err)
	assert.True(t, pipeline.Permanent(err))
}

func TestTranscodeExecutor_TrackLookupOutageIsRetryable(t *testing.T) {
	cfg := transcodeTestConfig(t)
	trackRepo := newFakeTrackRepo()
	trackRepo.getErr = errors.Wrapf(pipeline.ErrDBFailure,
		"get track by id: dial tcp 127.0.0.1:5432: connect: connection refused")
	exec := NewTranscodeExecutor(cfg, trackRepo, newFakeJobStore(), newFakeS3(), &fakeProcessor{}, newTestLogger())

	err := exec.Execute(context.Background(), trackJob(t, uuid.New()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDBFailure))
	assert.False(t, pipeline.Permanent(err))
}

func TestPipeline_TranscodeChainsIntoASR(t *testing.T) {
	cfg := transcodeTestConfig(t)
	trackRepo := newFakeTrackRepo()
	jobStore := newFakeJobStore()
	s3 := newFakeS3()
	media := &fakeProcessor{probeResult: MediaInfo{Kind: models.TrackKindAudio, Codec: "opus", DurationMs: 1500}}

	track := seedUploadedTrack(t, cfg, trackRepo, models.TrackKindAudio)
	transcode := NewTranscodeExecutor(cfg, trackRepo, jobStore, s3, media, newTestLogger())
	require.NoError(t, transcode.Execute(context.Background(), trackJob(t, track.TrackID)))

	asrJob, err := jobStore.ClaimNextJob(context.Background(), models.JobTypeASR)
	require.NoError(t, err)
	require.NotNil(t, asrJob)

	transcriptRepo := newFakeTranscriptRepo()
	recognizer := &fakeRecognizer{segments: []*models.TranscriptSegment{
		{StartMs: 0, EndMs: 700, Text: "hello"},
		{StartMs: 700, EndMs: 1500, Text: "world"},
	}}
	asrExec := NewASRExecutor(trackRepo, transcriptRepo, recognizer, newTestLogger())
	require.NoError(t, asrExec.Execute(context.Background(), asrJob))

	stored, err := transcriptRepo.GetSegmentsByTrack(context.Background(), track.TrackID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "hello", stored[0].Text)
	assert.Equal(t, time.Duration(1500)*time.Millisecond, recognizer.lastHint)
}
