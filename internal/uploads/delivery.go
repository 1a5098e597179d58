package uploads

import "github.com/labstack/echo/v4"

type Handler interface {
	InitiateUpload() echo.HandlerFunc
	CompleteUpload() echo.HandlerFunc
	ResumableHook() echo.HandlerFunc
	ResumableProgress() echo.HandlerFunc
	GetUploadStatus() echo.HandlerFunc
}
