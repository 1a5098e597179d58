package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/castforge/studio-backend/internal/config"
	exportRepository "github.com/castforge/studio-backend/internal/exports/repository"
	jobRepository "github.com/castforge/studio-backend/internal/jobs/repository"
	trackRepository "github.com/castforge/studio-backend/internal/tracks/repository"
	"github.com/castforge/studio-backend/internal/transcripts/asr"
	transcriptRepository "github.com/castforge/studio-backend/internal/transcripts/repository"
	uploadRepository "github.com/castforge/studio-backend/internal/uploads/repository"
	"github.com/castforge/studio-backend/internal/worker"
	"github.com/castforge/studio-backend/pkg/db/aws"
	"github.com/castforge/studio-backend/pkg/db/postgres"
	"github.com/castforge/studio-backend/pkg/logger"
)

func main() {
	log.Println("Starting pipeline worker")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	jobRepo := jobRepository.NewJobRepo(psqlDB)
	trackRepo := trackRepository.NewTrackRepo(psqlDB)
	transcriptRepo := transcriptRepository.NewTranscriptRepo(psqlDB)
	exportRepo := exportRepository.NewExportRepo(psqlDB)
	s3Repo := uploadRepository.NewAwsRepository(s3Client, presignClient)

	media := worker.NewFFmpegProcessor()
	recognizer := asr.NewClient(cfg)

	transcodeExec := worker.NewTranscodeExecutor(cfg, trackRepo, jobRepo, s3Repo, media, appLogger)
	asrExec := worker.NewASRExecutor(trackRepo, transcriptRepo, recognizer, appLogger)
	exportExec := worker.NewExportExecutor(cfg, exportRepo, trackRepo, transcriptRepo, s3Repo, media, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := worker.NewWorker(cfg, jobRepo, transcodeExec.Execute, asrExec.Execute, exportExec.Execute, appLogger)
	w.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down worker")
	cancel()
	w.Wait()
	appLogger.Info("worker stopped")
}
