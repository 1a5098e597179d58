package http

import (
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/transcripts"
)

func MapRecordingTranscriptRoutes(recordingGroup *echo.Group, h transcripts.Handler) {
	recordingGroup.GET("/:recording_id/transcript", h.GetRecordingTranscript())
}
