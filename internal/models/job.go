package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeTranscode JobType = "transcode"
	JobTypeASR       JobType = "asr"
	JobTypeExport    JobType = "export"
)

type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	// JobStateDead marks jobs that can never succeed (malformed payload,
	// missing referent); they are never retried.
	JobStateDead JobState = "dead"
)

const MaxJobAttempts = 3

// Job is one unit of asynchronous pipeline work. Rows are never deleted.
type Job struct {
	JobID       uuid.UUID       `json:"job_id" db:"job_id"`
	RecordingID uuid.UUID       `json:"recording_id" db:"recording_id"`
	Type        JobType         `json:"type" db:"type" validate:"required,oneof=transcode asr export"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	State       JobState        `json:"state" db:"state"`
	Attempts    int             `json:"attempts" db:"attempts"`
	LastError   *string         `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TrackPayload is the payload shape for transcode and asr jobs.
type TrackPayload struct {
	TrackID uuid.UUID `json:"track_id"`
}

// ExportPayload is the payload shape for export jobs.
type ExportPayload struct {
	ExportID uuid.UUID `json:"export_id"`
}

func (j *Job) Terminal() bool {
	return j.State == JobStateSucceeded || j.State == JobStateFailed || j.State == JobStateDead
}

type JobList struct {
	Jobs       []*Job `json:"jobs"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	HasMore    bool   `json:"has_more"`
}
