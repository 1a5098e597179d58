package models

import (
	"time"

	"github.com/google/uuid"
)

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

type TrackState string

// Track state only advances: recording -> uploaded -> processed.
const (
	TrackStateRecording TrackState = "recording"
	TrackStateUploaded  TrackState = "uploaded"
	TrackStateProcessed TrackState = "processed"
)

// Track is one media stream of a recording. StorageKeyRaw is set when the
// upload finalizes, StorageKeyFinal when the transcode stage finishes.
type Track struct {
	TrackID        uuid.UUID  `json:"track_id" db:"track_id"`
	RecordingID    uuid.UUID  `json:"recording_id" db:"recording_id" validate:"required"`
	ParticipantID  uuid.UUID  `json:"participant_id" db:"participant_id" validate:"required"`
	Kind           TrackKind  `json:"kind" db:"kind" validate:"required,oneof=audio video"`
	State          TrackState `json:"state" db:"state"`
	StorageKeyRaw  *string    `json:"storage_key_raw,omitempty" db:"storage_key_raw"`
	StorageKeyFinal *string   `json:"storage_key_final,omitempty" db:"storage_key_final"`
	Codec          *string    `json:"codec,omitempty" db:"codec"`
	DurationMs     *int64     `json:"duration_ms,omitempty" db:"duration_ms"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
