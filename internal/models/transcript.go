package models

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is one timed span of recognized speech. Segments for a
// track are ordered by StartMs and non-overlapping; each ASR run replaces
// the full set for its (recording, track) pair.
type TranscriptSegment struct {
	SegmentID   uuid.UUID `json:"segment_id" db:"segment_id"`
	RecordingID uuid.UUID `json:"recording_id" db:"recording_id"`
	TrackID     uuid.UUID `json:"track_id" db:"track_id"`
	StartMs     int64     `json:"start_ms" db:"start_ms"`
	EndMs       int64     `json:"end_ms" db:"end_ms"`
	Text        string    `json:"text" db:"text"`
	Speaker     *string   `json:"speaker,omitempty" db:"speaker"`
	Confidence  *float64  `json:"confidence,omitempty" db:"confidence"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
