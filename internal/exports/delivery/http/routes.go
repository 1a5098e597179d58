package http

import (
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/exports"
)

func MapExportRoutes(exportGroup *echo.Group, h exports.Handler) {
	exportGroup.POST("", h.RequestExport())
	exportGroup.GET("/:export_id", h.GetExport())
}
