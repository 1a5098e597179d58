package http

import (
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/uploads"
)

func MapUploadRoutes(uploadGroup *echo.Group, h uploads.Handler) {
	uploadGroup.POST("/initiate", h.InitiateUpload())
	uploadGroup.POST("/resumable/hook", h.ResumableHook())
	uploadGroup.POST("/resumable/progress", h.ResumableProgress())
	uploadGroup.POST("/:upload_id/complete", h.CompleteUpload())
	uploadGroup.GET("/:upload_id", h.GetUploadStatus())
}
