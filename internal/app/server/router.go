package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrpayroll/internal/domain/compliance"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/domain/severance"
	"hrpayroll/internal/platform/config"
	"hrpayroll/internal/platform/metrics"
	audithandler "hrpayroll/internal/transport/http/handlers/audit"
	compliancehandler "hrpayroll/internal/transport/http/handlers/compliance"
	jobshandler "hrpayroll/internal/transport/http/handlers/jobs"
	legalhandler "hrpayroll/internal/transport/http/handlers/legal"
	payrollhandler "hrpayroll/internal/transport/http/handlers/payroll"
	severancehandler "hrpayroll/internal/transport/http/handlers/severance"
	"hrpayroll/internal/transport/http/middleware"
)

// AuditLog records lifecycle events and serves them back.
type AuditLog interface {
	payroll.AuditRecorder
	audithandler.Lister
}

// JobService runs and reports background payroll batches.
type JobService interface {
	payrollhandler.JobRunner
	jobshandler.Getter
}

// Deps are the collaborators the HTTP surface runs on. Nil Locker, Limiter
// and Idempotency fall back to in-process implementations; nil Registry,
// Audit and Jobs leave their routes unmounted.
type Deps struct {
	Employees   core.EmployeeProvider
	Contracts   core.ContractProvider
	TimeRecords core.TimeRecordProvider
	Legal       legal.Provider
	Registry    legalhandler.Registry
	Runs        payroll.Store
	Benefits    severance.BenefitStore
	Statements  severance.StatementStore
	Audit       AuditLog
	Locker      payroll.Locker
	Jobs        JobService
	Idempotency middleware.IdempotencyStore
	Limiter     middleware.Limiter
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	Ready       func(context.Context) error
	Now         func() time.Time
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	var recorder payroll.AuditRecorder
	if d.Audit != nil {
		recorder = d.Audit
	}
	calc := payroll.NewCalculator(payroll.Deps{
		Employees:   d.Employees,
		Contracts:   d.Contracts,
		TimeRecords: d.TimeRecords,
		Legal:       d.Legal,
		Store:       d.Runs,
		Locker:      d.Locker,
		Audit:       recorder,
		Metrics:     d.Metrics,
		Now:         d.Now,
	})
	manager := payroll.NewManager(calc, cfg.BatchConcurrency)
	settlements := severance.NewCalculator(severance.Deps{
		Employees:  d.Employees,
		Contracts:  d.Contracts,
		Legal:      d.Legal,
		Benefits:   d.Benefits,
		Statements: d.Statements,
		Metrics:    d.Metrics,
		Now:        d.Now,
	})
	checks := compliance.NewService(d.Legal, d.Metrics)

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimitWindow)
	}
	idempotency := d.Idempotency
	if idempotency == nil {
		idempotency = middleware.NewMemoryIdempotencyStore()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Actor)
	router.Use(middleware.Logger(d.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled && d.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	var runner payrollhandler.JobRunner
	if d.Jobs != nil {
		runner = d.Jobs
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, limiter))

		payrollhandler.NewHandler(manager, runner).RegisterRoutes(r)
		severancehandler.NewHandler(settlements, idempotency).RegisterRoutes(r)
		compliancehandler.NewHandler(checks, d.Employees, d.Contracts, d.TimeRecords).RegisterRoutes(r)

		if d.Registry != nil {
			legalhandler.NewHandler(d.Registry).RegisterRoutes(r)
		}
		if d.Audit != nil {
			audithandler.NewHandler(d.Audit).RegisterRoutes(r)
		}
		if d.Jobs != nil {
			jobshandler.NewHandler(d.Jobs).RegisterRoutes(r)
		}
	})

	return router
}
