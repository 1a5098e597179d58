package models

import (
	"time"

	"github.com/google/uuid"
)

type ExportType string

const (
	ExportTypeWAV         ExportType = "wav"
	ExportTypeMP4         ExportType = "mp4"
	ExportTypeMP4Captions ExportType = "mp4_captions"
)

type ExportState string

const (
	ExportStateQueued    ExportState = "queued"
	ExportStateRunning   ExportState = "running"
	ExportStateSucceeded ExportState = "succeeded"
	ExportStateFailed    ExportState = "failed"
)

// ExportArtifact is a requested deliverable. At most one active
// (queued/running/succeeded) artifact exists per (recording, type);
// LastError is kept separately from job bookkeeping so status reads never
// join the job table.
type ExportArtifact struct {
	ExportID    uuid.UUID   `json:"export_id" db:"export_id"`
	RecordingID uuid.UUID   `json:"recording_id" db:"recording_id" validate:"required"`
	Type        ExportType  `json:"type" db:"type" validate:"required,oneof=wav mp4 mp4_captions"`
	State       ExportState `json:"state" db:"state"`
	StorageKey  *string     `json:"storage_key,omitempty" db:"storage_key"`
	LastError   *string     `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type ExportRequestInput struct {
	RecordingID uuid.UUID  `json:"recording_id" validate:"required"`
	Type        ExportType `json:"type" validate:"required,oneof=wav mp4 mp4_captions"`
}
