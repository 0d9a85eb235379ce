package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/platform/config"
	"hrpayroll/internal/platform/metrics"
)

const (
	JobPayrollBatch = "payroll_batch"
	JobPeriodBatch  = "payroll_period_batch"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

type Func func(context.Context) (any, error)

type Service struct {
	log     RunLog
	metrics *metrics.Collector
	queue   chan job
	now     func() time.Time
}

type job struct {
	ID   string
	Type string
	Run  Func
}

func New(db *pgxpool.Pool, cfg config.Config, m *metrics.Collector) *Service {
	return NewWithLog(NewPGRunLog(db), cfg.JobQueueSize, m)
}

func NewWithLog(log RunLog, queueSize int, m *metrics.Collector) *Service {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Service{
		log:     log,
		metrics: m,
		queue:   make(chan job, queueSize),
		now:     time.Now,
	}
}

// Start runs the worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue records the job as running and hands it to the worker. The returned
// id can be polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType string, run Func) (string, error) {
	j := job{ID: uuid.NewString(), Type: jobType, Run: run}
	if err := s.log.Start(ctx, j.ID, j.Type, s.now()); err != nil {
		return "", err
	}
	select {
	case s.queue <- j:
		return j.ID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType)
		if err := s.log.Finish(ctx, j.ID, StatusFailed, []byte(`{"error":"job queue full"}`), s.now()); err != nil {
			slog.Warn("job run update failed", "jobId", j.ID, "err", err)
		}
		s.metrics.JobRun(j.Type, StatusFailed)
		return "", ErrQueueFull
	}
}

// RunNow executes run on the caller's goroutine and records it like a queued job.
func (s *Service) RunNow(ctx context.Context, jobType string, run Func) (any, error) {
	j := job{ID: uuid.NewString(), Type: jobType, Run: run}
	if err := s.log.Start(ctx, j.ID, j.Type, s.now()); err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return s.runJob(ctx, j)
}

func (s *Service) Get(ctx context.Context, jobID string) (Run, error) {
	run, err := s.log.Get(ctx, jobID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Run{}, apperr.Newf(apperr.KindNotFound, "job %s not found", jobID)
	}
	return run, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "jobId", j.ID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		if details == nil {
			details = map[string]string{"error": err.Error()}
		}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	// The job's own ctx may be done by now; the outcome is still recorded.
	if finErr := s.log.Finish(context.WithoutCancel(ctx), j.ID, status, detailsJSON, s.now()); finErr != nil {
		slog.Warn("job run update failed", "jobId", j.ID, "err", finErr)
	}
	s.metrics.JobRun(j.Type, status)
	return details, err
}
