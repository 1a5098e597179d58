package transcripts

import (
	"context"
	"time"

	"github.com/castforge/studio-backend/internal/models"
)

// Recognizer is the external transcription capability. Given a storage
// reference to processed audio and an optional duration hint it returns a
// finite, ordered, non-overlapping list of timed segments.
type Recognizer interface {
	Transcribe(ctx context.Context, audioRef string, durationHint time.Duration) ([]*models.TranscriptSegment, error)
}
