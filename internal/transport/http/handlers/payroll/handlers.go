package payrollhandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/platform/jobs"
	"hrpayroll/internal/requestctx"
	"hrpayroll/internal/transport/http/api"
	"hrpayroll/internal/transport/http/middleware"
	"hrpayroll/internal/transport/http/shared"
)

// JobRunner records batch runs in job_runs.
type JobRunner interface {
	Enqueue(ctx context.Context, jobType string, run jobs.Func) (string, error)
	RunNow(ctx context.Context, jobType string, run jobs.Func) (any, error)
}

type Handler struct {
	Manager *payroll.Manager
	Jobs    JobRunner
}

func NewHandler(manager *payroll.Manager, jobRunner JobRunner) *Handler {
	return &Handler{Manager: manager, Jobs: jobRunner}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/runs", h.handleComputeRun)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/pending", h.handlePending)
		r.Get("/runs/{runID}", h.handleGetRun)
		r.Post("/runs/{runID}/approve", h.handleApprove)
		r.Post("/runs/{runID}/recalculate", h.handleRecalculate)
		r.Post("/runs/{runID}/pay", h.handleMarkPaid)
		r.Post("/runs/{runID}/post", h.handleMarkPosted)
		r.Post("/batches", h.handleBatch)
		r.Post("/periods/{period}/approve", h.handleApprovePeriod)
		r.Get("/overtime", h.handleOvertime)
	})
}

// RunView is a run with its derived totals.
type RunView struct {
	payroll.Run
	Totals payroll.Totals `json:"totals"`
}

func view(run payroll.Run) RunView {
	return RunView{Run: run, Totals: run.Totals()}
}

func views(runs []payroll.Run) []RunView {
	out := make([]RunView, 0, len(runs))
	for _, run := range runs {
		out = append(out, view(run))
	}
	return out
}

type computeRequest struct {
	EmployeeID string `json:"employeeId"`
	Period     string `json:"period"`
}

func parsePeriod(v *shared.Validator, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		v.Add(field, "is required")
		return time.Time{}
	}
	period, err := payroll.ParsePeriod(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be YYYY-MM")
	}
	return period
}

func (h *Handler) handleComputeRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload computeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	period := parsePeriod(v, "period", payload.Period)
	if v.Reject(w, reqID) {
		return
	}

	run, err := h.Manager.Calculator().ComputeMonthlyPayroll(r.Context(), payload.EmployeeID, period)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, view(run), reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	period := parsePeriod(v, "period", r.URL.Query().Get("period"))
	if v.Reject(w, reqID) {
		return
	}
	runs, err := h.Manager.ListByPeriod(r.Context(), period)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(runs)))
	api.Success(w, views(paginate(runs, page)), reqID)
}

func paginate(runs []payroll.Run, page shared.Pagination) []payroll.Run {
	if page.Offset >= len(runs) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(runs))
	return runs[page.Offset:end]
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	runs, err := h.Manager.Pending(r.Context())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, views(runs), reqID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Manager.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, view(run), reqID)
}

type approveRequest struct {
	ApproverID string `json:"approverId"`
}

// approver prefers the body, then the X-Actor-ID identity.
func approver(w http.ResponseWriter, r *http.Request, reqID string) (string, bool) {
	var payload approveRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return "", false
	}
	approverID := strings.TrimSpace(payload.ApproverID)
	if approverID == "" {
		approverID = requestctx.GetActorID(r.Context())
	}
	v := shared.NewValidator()
	v.Required("approverId", approverID, "is required")
	if v.Reject(w, reqID) {
		return "", false
	}
	return approverID, true
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	approverID, ok := approver(w, r, reqID)
	if !ok {
		return
	}
	run, err := h.Manager.Approve(r.Context(), chi.URLParam(r, "runID"), approverID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, view(run), reqID)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Manager.Recalculate)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Manager.MarkPaid)
}

func (h *Handler) handleMarkPosted(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Manager.MarkPosted)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, step func(context.Context, string) (payroll.Run, error)) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := step(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, view(run), reqID)
}

type batchRequest struct {
	Period      string   `json:"period"`
	EmployeeIDs []string `json:"employeeIds"`
	Async       bool     `json:"async"`
}

// handleBatch runs the listed employees, or every active one when the list
// is empty. async=true queues the batch and answers 202 with the job id.
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload batchRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	period := parsePeriod(v, "period", payload.Period)
	for i, id := range payload.EmployeeIDs {
		if strings.TrimSpace(id) == "" {
			v.Add("employeeIds["+strconv.Itoa(i)+"]", "must not be empty")
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	jobType := jobs.JobPeriodBatch
	run := func(ctx context.Context) (any, error) {
		return h.Manager.RunAllActive(ctx, period)
	}
	if len(payload.EmployeeIDs) > 0 {
		jobType = jobs.JobPayrollBatch
		ids := append([]string(nil), payload.EmployeeIDs...)
		run = func(ctx context.Context) (any, error) {
			return h.Manager.RunBatch(ctx, period, ids)
		}
	}

	if payload.Async {
		if h.Jobs == nil {
			api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "background jobs are not configured", reqID)
			return
		}
		actorID := requestctx.GetActorID(r.Context())
		jobID, err := h.Jobs.Enqueue(r.Context(), jobType, func(ctx context.Context) (any, error) {
			ctx = requestctx.WithActorID(requestctx.WithRequestID(ctx, reqID), actorID)
			return run(ctx)
		})
		if err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				api.Fail(w, http.StatusServiceUnavailable, "queue_full", err.Error(), reqID)
				return
			}
			api.FailError(w, err, reqID)
			return
		}
		api.Accepted(w, map[string]string{"jobId": jobID}, reqID)
		return
	}

	var result any
	var err error
	if h.Jobs != nil {
		result, err = h.Jobs.RunNow(r.Context(), jobType, run)
	} else {
		result, err = run(r.Context())
	}
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleApprovePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	period := parsePeriod(v, "period", chi.URLParam(r, "period"))
	if v.Reject(w, reqID) {
		return
	}
	approverID, ok := approver(w, r, reqID)
	if !ok {
		return
	}
	approved, err := h.Manager.ApprovePeriod(r.Context(), period, approverID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"period": period.Format("2006-01"), "approved": approved}, reqID)
}

func (h *Handler) handleOvertime(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := r.URL.Query().Get("employeeId")
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	period := parsePeriod(v, "period", r.URL.Query().Get("period"))
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Manager.Calculator().ComputeOvertimeValue(r.Context(), employeeID, period)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]decimal.Decimal{"overtimeValue": value}, reqID)
}
