package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	exportHttp "github.com/castforge/studio-backend/internal/exports/delivery/http"
	exportRepository "github.com/castforge/studio-backend/internal/exports/repository"
	exportUsecase "github.com/castforge/studio-backend/internal/exports/usecase"
	jobHttp "github.com/castforge/studio-backend/internal/jobs/delivery/http"
	jobRepository "github.com/castforge/studio-backend/internal/jobs/repository"
	jobUsecase "github.com/castforge/studio-backend/internal/jobs/usecase"
	"github.com/castforge/studio-backend/internal/middleware"
	trackRepository "github.com/castforge/studio-backend/internal/tracks/repository"
	transcriptHttp "github.com/castforge/studio-backend/internal/transcripts/delivery/http"
	transcriptRepository "github.com/castforge/studio-backend/internal/transcripts/repository"
	transcriptUsecase "github.com/castforge/studio-backend/internal/transcripts/usecase"
	uploadHttp "github.com/castforge/studio-backend/internal/uploads/delivery/http"
	uploadRepository "github.com/castforge/studio-backend/internal/uploads/repository"
	uploadUsecase "github.com/castforge/studio-backend/internal/uploads/usecase"
	"github.com/castforge/studio-backend/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jRepo := jobRepository.NewJobRepo(s.db)
	tRepo := trackRepository.NewTrackRepo(s.db)
	uRepo := uploadRepository.NewUploadRepo(s.db)
	uAWSRepo := uploadRepository.NewAwsRepository(s.s3Client, s.preSignClient)
	uRedisRepo := uploadRepository.NewUploadRedisRepo(s.redisClient)
	trRepo := transcriptRepository.NewTranscriptRepo(s.db)
	eRepo := exportRepository.NewExportRepo(s.db)

	uploadUC := uploadUsecase.NewUploadUseCase(s.cfg, uRepo, uAWSRepo, uRedisRepo, tRepo, jRepo, s.logger)
	exportUC := exportUsecase.NewExportUseCase(eRepo, jRepo, s.logger)
	jobUC := jobUsecase.NewJobUseCase(s.cfg, jRepo, s.logger)
	transcriptUC := transcriptUsecase.NewTranscriptUseCase(trRepo, s.logger)

	uploadHandlers := uploadHttp.NewUploadHandler(uploadUC)
	exportHandlers := exportHttp.NewExportHandler(exportUC)
	jobHandlers := jobHttp.NewJobHandler(jobUC)
	transcriptHandlers := transcriptHttp.NewTranscriptHandler(transcriptUC)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	uploadGroup := v1.Group("/uploads")
	exportGroup := v1.Group("/exports")
	jobGroup := v1.Group("/jobs")
	recordingGroup := v1.Group("/recordings")

	uploadHttp.MapUploadRoutes(uploadGroup, uploadHandlers)
	exportHttp.MapExportRoutes(exportGroup, exportHandlers)
	jobHttp.MapJobRoutes(jobGroup, jobHandlers)
	jobHttp.MapRecordingJobRoutes(recordingGroup, jobHandlers)
	transcriptHttp.MapRecordingTranscriptRoutes(recordingGroup, transcriptHandlers)

	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
