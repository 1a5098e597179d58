package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadProtocol string

const (
	ProtocolResumable UploadProtocol = "resumable"
	ProtocolMultipart UploadProtocol = "multipart"
)

type UploadState string

const (
	UploadStateInProgress UploadState = "in_progress"
	UploadStateCompleted  UploadState = "completed"
)

// Upload is one transport session carrying a track's raw bytes. The
// multipart plan fields are nil for resumable uploads; resumable sessions
// keep their external id in UploadExternalSession instead.
type Upload struct {
	UploadID      uuid.UUID      `json:"upload_id" db:"upload_id"`
	TrackID       uuid.UUID      `json:"track_id" db:"track_id"`
	Protocol      UploadProtocol `json:"protocol" db:"protocol"`
	State         UploadState    `json:"state" db:"state"`
	BytesReceived int64          `json:"bytes_received" db:"bytes_received"`
	StorageBucket *string        `json:"storage_bucket,omitempty" db:"storage_bucket"`
	ObjectKey     *string        `json:"object_key,omitempty" db:"object_key"`
	MultipartID   *string        `json:"multipart_id,omitempty" db:"multipart_id"`
	PartSize      *int64         `json:"part_size,omitempty" db:"part_size"`
	ExpectedSize  *int64         `json:"expected_size,omitempty" db:"expected_size"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// UploadExternalSession maps an internal upload id to the session id of the
// external resumable-transfer server. Both columns are unique.
type UploadExternalSession struct {
	UploadID          uuid.UUID `json:"upload_id" db:"upload_id"`
	ExternalSessionID string    `json:"external_session_id" db:"external_session_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// InitiateUploadInput starts one upload session and its track.
type InitiateUploadInput struct {
	RecordingID   uuid.UUID      `json:"recording_id" validate:"required"`
	ParticipantID uuid.UUID      `json:"participant_id" validate:"required"`
	Kind          TrackKind      `json:"kind" validate:"required,oneof=audio video"`
	Protocol      UploadProtocol `json:"protocol" validate:"required,oneof=resumable multipart"`
	Size          int64          `json:"size" validate:"required_if=Protocol multipart,omitempty,gt=0"`
	PartSize      int64          `json:"part_size" validate:"omitempty,gt=0"`
}

// UploadPlan is returned to the client after initiation. PartURLs is only
// populated for multipart uploads.
type UploadPlan struct {
	UploadID uuid.UUID      `json:"upload_id"`
	TrackID  uuid.UUID      `json:"track_id"`
	Protocol UploadProtocol `json:"protocol"`
	Bucket   string         `json:"bucket,omitempty"`
	Key      string         `json:"key,omitempty"`
	PartSize int64          `json:"part_size,omitempty"`
	PartURLs []PresignedPart `json:"part_urls,omitempty"`
}

type PresignedPart struct {
	PartNumber int32  `json:"part_number"`
	URL        string `json:"url"`
}

// CompletedPart is reported back by the client after each part PUT.
type CompletedPart struct {
	PartNumber int32  `json:"part_number" validate:"required,gt=0"`
	ETag       string `json:"etag" validate:"required"`
}

// CompleteUploadInput carries the transport-specific completion payload.
type CompleteUploadInput struct {
	Parts         []CompletedPart `json:"parts,omitempty"`
	ExpectedBytes int64           `json:"expected_bytes,omitempty"`
}

// CompleteUploadResult is the shared finalization contract for both
// transports. AlreadyCompleted reports an idempotent replay.
type CompleteUploadResult struct {
	BytesReceived    int64  `json:"bytes_received"`
	RawStorageKey    string `json:"raw_storage_key"`
	AlreadyCompleted bool   `json:"already_completed"`
}

// ResumableHookInput is posted by the external upload server when it
// creates a transport session.
type ResumableHookInput struct {
	UploadID          uuid.UUID `json:"upload_id" validate:"required"`
	ExternalSessionID string    `json:"external_session_id" validate:"required"`
}

// ResumableProgressInput reports received bytes mid-transfer; advisory
// only, cached for status reads.
type ResumableProgressInput struct {
	UploadID      uuid.UUID `json:"upload_id" validate:"required"`
	BytesReceived int64     `json:"bytes_received" validate:"gte=0"`
}
