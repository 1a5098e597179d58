package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/transcripts"
)

type transcriptHandler struct {
	transcriptUC transcripts.UseCase
}

func NewTranscriptHandler(transcriptUC transcripts.UseCase) transcripts.Handler {
	return &transcriptHandler{
		transcriptUC: transcriptUC,
	}
}

func (h *transcriptHandler) GetRecordingTranscript() echo.HandlerFunc {
	return func(c echo.Context) error {
		recordingID, err := uuid.Parse(c.Param("recording_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid recording id"})
		}
		segments, err := h.transcriptUC.GetRecordingTranscript(c.Request().Context(), recordingID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, segments)
	}
}
