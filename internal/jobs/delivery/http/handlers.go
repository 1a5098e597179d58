package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/pkg/utils"
)

type jobHandler struct {
	jobUC jobs.UseCase
}

func NewJobHandler(jobUC jobs.UseCase) jobs.Handler {
	return &jobHandler{
		jobUC: jobUC,
	}
}

func (h *jobHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		job, err := h.jobUC.GetJobByID(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *jobHandler) GetRecordingJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		recordingID, err := uuid.Parse(c.Param("recording_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid recording id"})
		}
		pq, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		jobList, err := h.jobUC.GetJobsByRecording(c.Request().Context(), recordingID, pq)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, jobList)
	}
}
