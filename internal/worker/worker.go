package worker

import (
	"context"
	"sync"
	"time"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/jobs"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/pkg/logger"
	"github.com/castforge/studio-backend/pkg/utils"
)

const defaultPollInterval = 1500 * time.Millisecond

// ExecuteFn runs one claimed job to completion. A nil return resolves the
// job succeeded; an error resolves it through the retry state machine.
type ExecuteFn func(ctx context.Context, job *models.Job) error

// Loop is one poll-claim-execute-resolve cycle for a single job type. Any
// number of loops may run per type; exclusivity comes from the claim, not
// from the loop.
type Loop struct {
	jobType  models.JobType
	interval time.Duration
	jobRepo  jobs.Repository
	exec     ExecuteFn
	gate     func() bool
	logger   logger.Logger
}

func NewLoop(cfg *config.Config, jobType models.JobType, jobRepo jobs.Repository, exec ExecuteFn, log logger.Logger) *Loop {
	interval := cfg.Worker.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Loop{
		jobType:  jobType,
		interval: interval,
		jobRepo:  jobRepo,
		exec:     exec,
		logger:   log,
	}
}

// WithGate makes the loop skip claiming while gate returns false.
func (l *Loop) WithGate(gate func() bool) *Loop {
	l.gate = gate
	return l
}

// Run polls until ctx is cancelled. Cancellation is honored between
// iterations only; an in-flight job always finishes and is resolved.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Infof("starting %s loop (interval %s)", l.jobType, l.interval)
	for {
		select {
		case <-ctx.Done():
			l.logger.Infof("stopping %s loop", l.jobType)
			return
		default:
		}

		if l.gate != nil && !l.gate() {
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		job, err := l.jobRepo.ClaimNextJob(ctx, l.jobType)
		if err != nil {
			// Store hiccups must not kill the loop; back off and retry.
			l.logger.Errorf("%s loop: claim error: %v", l.jobType, err)
			if !l.sleep(ctx) {
				return
			}
			continue
		}
		if job == nil {
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		l.runOne(ctx, job)
	}
}

func (l *Loop) runOne(ctx context.Context, job *models.Job) {
	// The job context survives shutdown so the in-flight job is never
	// half-done; only the polling obeys cancellation.
	jobCtx := context.WithoutCancel(ctx)

	l.logger.Infof("claimed %s job %s (attempt %d)", job.Type, job.JobID, job.Attempts)
	if err := l.exec(jobCtx, job); err != nil {
		l.logger.Errorf("%s job %s failed: %v", job.Type, job.JobID, err)
		if resolveErr := l.jobRepo.MarkFailed(jobCtx, job, err); resolveErr != nil {
			l.logger.Errorf("%s job %s: failed to resolve failure: %v", job.Type, job.JobID, resolveErr)
		}
		return
	}
	if err := l.jobRepo.MarkSucceeded(jobCtx, job.JobID); err != nil {
		l.logger.Errorf("%s job %s: failed to resolve success: %v", job.Type, job.JobID, err)
		return
	}
	l.logger.Infof("%s job %s succeeded", job.Type, job.JobID)
}

// sleep waits one poll interval; returns false when ctx was cancelled.
func (l *Loop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Worker runs the configured set of loops for all pipeline stages.
type Worker struct {
	cfg           *config.Config
	jobRepo       jobs.Repository
	transcodeExec ExecuteFn
	asrExec       ExecuteFn
	exportExec    ExecuteFn
	logger        logger.Logger
	wg            sync.WaitGroup
}

func NewWorker(cfg *config.Config, jobRepo jobs.Repository, transcodeExec, asrExec, exportExec ExecuteFn, log logger.Logger) *Worker {
	return &Worker{
		cfg:           cfg,
		jobRepo:       jobRepo,
		transcodeExec: transcodeExec,
		asrExec:       asrExec,
		exportExec:    exportExec,
		logger:        log,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting pipeline worker")

	cpuGate := func() bool {
		ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage)
		if !ok {
			w.logger.Infof("CPU usage too high for transcode: %.2f%%", usage)
		}
		return ok
	}

	w.spawn(ctx, loopCount(w.cfg.Worker.TranscodeLoops), func() *Loop {
		return NewLoop(w.cfg, models.JobTypeTranscode, w.jobRepo, w.transcodeExec, w.logger).WithGate(cpuGate)
	})
	w.spawn(ctx, loopCount(w.cfg.Worker.ASRLoops), func() *Loop {
		return NewLoop(w.cfg, models.JobTypeASR, w.jobRepo, w.asrExec, w.logger)
	})
	w.spawn(ctx, loopCount(w.cfg.Worker.ExportLoops), func() *Loop {
		return NewLoop(w.cfg, models.JobTypeExport, w.jobRepo, w.exportExec, w.logger)
	})
}

func (w *Worker) spawn(ctx context.Context, count int, newLoop func() *Loop) {
	for i := 0; i < count; i++ {
		loop := newLoop()
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			loop.Run(ctx)
		}()
	}
}

// Wait blocks until every loop has observed cancellation and finished its
// in-flight job.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func loopCount(configured int) int {
	if configured <= 0 {
		return 1
	}
	return configured
}
