package http

import (
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/jobs"
)

func MapJobRoutes(jobGroup *echo.Group, h jobs.Handler) {
	jobGroup.GET("/:job_id", h.GetJob())
}

func MapRecordingJobRoutes(recordingGroup *echo.Group, h jobs.Handler) {
	recordingGroup.GET("/:recording_id/jobs", h.GetRecordingJobs())
}
