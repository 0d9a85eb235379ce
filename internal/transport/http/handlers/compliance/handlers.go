package compliancehandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/compliance"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/transport/http/api"
	"hrpayroll/internal/transport/http/middleware"
	"hrpayroll/internal/transport/http/shared"
)

type Handler struct {
	Service     *compliance.Service
	Employees   core.EmployeeProvider
	Contracts   core.ContractProvider
	TimeRecords core.TimeRecordProvider
}

func NewHandler(service *compliance.Service, employees core.EmployeeProvider, contracts core.ContractProvider, records core.TimeRecordProvider) *Handler {
	return &Handler{Service: service, Employees: employees, Contracts: contracts, TimeRecords: records}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/reviews", h.handleReview)
		r.Post("/{check}", h.handleCheck)
	})
}

// checkRequest carries the inputs of every single check; each check reads
// only the fields it needs.
type checkRequest struct {
	Salary     *decimal.Decimal       `json:"salary"`
	BirthDate  string                 `json:"birthDate"`
	Records    []core.DailyTimeRecord `json:"records"`
	NationalID string                 `json:"nationalId"`
	Contract   *core.Contract         `json:"contract"`
	Base       *decimal.Decimal       `json:"base"`
	Health     *decimal.Decimal       `json:"health"`
	Pension    *decimal.Decimal       `json:"pension"`
}

func requireAmount(v *shared.Validator, field string, value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		v.Add(field, "is required")
		return decimal.Zero
	}
	return *value
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	check := chi.URLParam(r, "check")
	var payload checkRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	var result any
	var err error
	ctx := r.Context()
	switch check {
	case compliance.CheckMinimumWage:
		salary := requireAmount(v, "salary", payload.Salary)
		if v.Reject(w, reqID) {
			return
		}
		result, err = h.Service.MinimumWage(ctx, salary)
	case compliance.CheckAllowance:
		salary := requireAmount(v, "salary", payload.Salary)
		if v.Reject(w, reqID) {
			return
		}
		result, err = h.Service.TransportAllowance(ctx, salary)
	case compliance.CheckMinimumAge:
		birth, _ := v.Date("birthDate", payload.BirthDate)
		if v.Reject(w, reqID) {
			return
		}
		result, err = h.Service.MinimumAge(ctx, birth)
	case compliance.CheckWeeklyHours:
		result, err = h.Service.WeeklyHours(ctx, payload.Records)
	case compliance.CheckOvertimeCaps:
		result = h.Service.OvertimeCaps(payload.Records)
	case compliance.CheckNationalID:
		result = h.Service.NationalID(payload.NationalID)
	case compliance.CheckContract:
		if payload.Contract == nil {
			v.Add("contract", "is required")
		}
		if v.Reject(w, reqID) {
			return
		}
		result, err = h.Service.ContractConsistency(ctx, *payload.Contract)
	case compliance.CheckContributions:
		base := requireAmount(v, "base", payload.Base)
		health := requireAmount(v, "health", payload.Health)
		pension := requireAmount(v, "pension", payload.Pension)
		if v.Reject(w, reqID) {
			return
		}
		result, err = h.Service.ContributionReconciliation(ctx, base, health, pension)
	default:
		api.Fail(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown compliance check %q", check), reqID)
		return
	}
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

type reviewRequest struct {
	EmployeeID string `json:"employeeId"`
	Period     string `json:"period"`
}

// handleReview loads the employee, its active contract and the month's time
// records, then runs every applicable check.
func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload reviewRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	var period time.Time
	if strings.TrimSpace(payload.Period) != "" {
		parsed, err := payroll.ParsePeriod(strings.TrimSpace(payload.Period))
		if err != nil {
			v.Add("period", "must be YYYY-MM")
		}
		period = parsed
	}
	if v.Reject(w, reqID) {
		return
	}

	ctx := r.Context()
	emp, err := h.Employees.GetByID(ctx, payload.EmployeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		api.FailError(w, apperr.Newf(apperr.KindNotFound, "employee %s not found", payload.EmployeeID), reqID)
		return
	}
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	snap := compliance.Snapshot{Employee: emp}

	contract, err := h.Contracts.GetActive(ctx, emp.ID)
	switch {
	case err == nil:
		snap.Contract = &contract
	case !errors.Is(err, apperr.ErrNotFound):
		api.FailError(w, err, reqID)
		return
	}

	if !period.IsZero() {
		records, err := h.TimeRecords.GetRange(ctx, emp.ID, period, period.AddDate(0, 1, -1))
		if err != nil {
			api.FailError(w, err, reqID)
			return
		}
		snap.Records = records
	}

	report, err := h.Service.Review(ctx, snap)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, reviewView{Report: report, OK: report.OK()}, reqID)
}

type reviewView struct {
	compliance.Report
	OK bool `json:"ok"`
}
