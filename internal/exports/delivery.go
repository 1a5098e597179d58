package exports

import "github.com/labstack/echo/v4"

type Handler interface {
	RequestExport() echo.HandlerFunc
	GetExport() echo.HandlerFunc
}
