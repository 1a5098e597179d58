package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/castforge/studio-backend/internal/exports"
	"github.com/castforge/studio-backend/internal/models"
)

type exportHandler struct {
	exportUC exports.UseCase
}

func NewExportHandler(exportUC exports.UseCase) exports.Handler {
	return &exportHandler{
		exportUC: exportUC,
	}
}

func (h *exportHandler) RequestExport() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ExportRequestInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		artifact, err := h.exportUC.RequestExport(c.Request().Context(), input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, artifact)
	}
}

func (h *exportHandler) GetExport() echo.HandlerFunc {
	return func(c echo.Context) error {
		exportID, err := uuid.Parse(c.Param("export_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export id"})
		}
		artifact, err := h.exportUC.GetExport(c.Request().Context(), exportID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, artifact)
	}
}
