package transcripts

import "github.com/labstack/echo/v4"

type Handler interface {
	GetRecordingTranscript() echo.HandlerFunc
}
