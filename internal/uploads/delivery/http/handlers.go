package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
	"github.com/castforge/studio-backend/internal/uploads"
)

type uploadHandler struct {
	uploadUC uploads.UseCase
}

func NewUploadHandler(uploadUC uploads.UseCase) uploads.Handler {
	return &uploadHandler{
		uploadUC: uploadUC,
	}
}

func (h *uploadHandler) InitiateUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.InitiateUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		plan, err := h.uploadUC.InitiateUpload(c.Request().Context(), input)
		if err != nil {
			return c.JSON(uploadErrorStatus(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, plan)
	}
}

func (h *uploadHandler) CompleteUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		uploadID, err := uuid.Parse(c.Param("upload_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid upload id"})
		}
		input := &models.CompleteUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		result, err := h.uploadUC.CompleteUpload(c.Request().Context(), uploadID, input)
		if err != nil {
			return c.JSON(uploadErrorStatus(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (h *uploadHandler) ResumableHook() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ResumableHookInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := h.uploadUC.RegisterExternalSession(c.Request().Context(), input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "registered"})
	}
}

func (h *uploadHandler) ResumableProgress() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ResumableProgressInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := h.uploadUC.RecordProgress(c.Request().Context(), input.UploadID, input.BytesReceived); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
	}
}

func (h *uploadHandler) GetUploadStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		uploadID, err := uuid.Parse(c.Param("upload_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid upload id"})
		}
		upload, err := h.uploadUC.GetUploadStatus(c.Request().Context(), uploadID)
		if err != nil {
			return c.JSON(uploadErrorStatus(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, upload)
	}
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrSizeMismatch), errors.Is(err, pipeline.ErrTransportNotFound):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrStorageFailure):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrDBFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
