package severancehandler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/severance"
	"hrpayroll/internal/transport/http/api"
	"hrpayroll/internal/transport/http/middleware"
	"hrpayroll/internal/transport/http/shared"
)

type Handler struct {
	Calculator  *severance.Calculator
	Idempotency middleware.IdempotencyStore
}

func NewHandler(calc *severance.Calculator, idem middleware.IdempotencyStore) *Handler {
	return &Handler{Calculator: calc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/severance", func(r chi.Router) {
		r.With(middleware.Idempotent(h.Idempotency)).Post("/settlements", h.handleSettlement)
		r.Get("/settlements/{statementID}", h.handleGetSettlement)
		r.Route("/employees/{employeeID}", func(r chi.Router) {
			r.Get("/accrual", h.handleAccrual)
			r.Get("/accrual-interest", h.handleInterest)
			r.Get("/service-bonus", h.handleServiceBonus)
			r.Get("/vacation", h.handleVacation)
			r.Get("/indemnity", h.handleIndemnity)
			r.Get("/benefits-salary", h.handleBenefitsSalary)
			r.Post("/accruals/{year}/close", h.handleCloseYear)
		})
	})
}

var reasonNames = func() []string {
	out := make([]string, 0, len(severance.Reasons))
	for _, reason := range severance.Reasons {
		out = append(out, string(reason))
	}
	return out
}()

type settlementRequest struct {
	EmployeeID      string `json:"employeeId"`
	TerminationDate string `json:"terminationDate"`
	Reason          string `json:"reason"`
}

func (h *Handler) handleSettlement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload settlementRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("reason", payload.Reason, "is required")
	v.Enum("reason", payload.Reason, reasonNames, "is not a known termination reason")
	terminated, _ := v.Date("terminationDate", payload.TerminationDate)
	if v.Reject(w, reqID) {
		return
	}

	st, err := h.Calculator.ComputeFullSettlement(r.Context(), payload.EmployeeID, terminated, severance.Reason(strings.ToLower(strings.TrimSpace(payload.Reason))))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, statementView{Statement: st, Total: st.Total(), Complete: st.Complete()}, reqID)
}

type statementView struct {
	severance.Statement
	Total    decimal.Decimal `json:"total"`
	Complete bool            `json:"complete"`
}

func (h *Handler) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	st, err := h.Calculator.GetStatement(r.Context(), chi.URLParam(r, "statementID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, statementView{Statement: st, Total: st.Total(), Complete: st.Complete()}, reqID)
}

// dateRange reads start and end query parameters.
func dateRange(r *http.Request, v *shared.Validator) (time.Time, time.Time) {
	start, _ := v.Date("start", r.URL.Query().Get("start"))
	end, _ := v.Date("end", r.URL.Query().Get("end"))
	v.DateOrder("start", start, "end", end)
	return start, end
}

func amount(w http.ResponseWriter, reqID, name string, value decimal.Decimal, err error) {
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]decimal.Decimal{name: value}, reqID)
}

func (h *Handler) handleAccrual(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	start, end := dateRange(r, v)
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Calculator.ComputeAccrual(r.Context(), chi.URLParam(r, "employeeID"), start, end)
	amount(w, reqID, "accrual", value, err)
}

func (h *Handler) handleServiceBonus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	start, end := dateRange(r, v)
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Calculator.ComputeServiceBonus(r.Context(), chi.URLParam(r, "employeeID"), start, end)
	amount(w, reqID, "serviceBonus", value, err)
}

func (h *Handler) handleVacation(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	start, end := dateRange(r, v)
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Calculator.ComputeProportionalVacation(r.Context(), chi.URLParam(r, "employeeID"), start, end)
	amount(w, reqID, "vacation", value, err)
}

func parseYear(v *shared.Validator, raw string) int {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1900 || year > 9999 {
		v.Add("year", "must be a four digit year")
	}
	return year
}

func (h *Handler) handleInterest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := parseYear(v, r.URL.Query().Get("year"))
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Calculator.ComputeAccrualInterest(r.Context(), chi.URLParam(r, "employeeID"), year)
	amount(w, reqID, "accrualInterest", value, err)
}

func (h *Handler) handleIndemnity(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	contractID := r.URL.Query().Get("contractId")
	reason := r.URL.Query().Get("reason")
	v := shared.NewValidator()
	v.Required("contractId", contractID, "is required")
	v.Required("reason", reason, "is required")
	v.Enum("reason", reason, reasonNames, "is not a known termination reason")
	if v.Reject(w, reqID) {
		return
	}
	value, err := h.Calculator.ComputeIndemnity(r.Context(), chi.URLParam(r, "employeeID"), contractID, severance.Reason(strings.ToLower(reason)))
	amount(w, reqID, "indemnity", value, err)
}

func (h *Handler) handleBenefitsSalary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	value, err := h.Calculator.BenefitsSalary(r.Context(), chi.URLParam(r, "employeeID"))
	amount(w, reqID, "benefitsSalary", value, err)
}

func (h *Handler) handleCloseYear(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := parseYear(v, chi.URLParam(r, "year"))
	if v.Reject(w, reqID) {
		return
	}
	rec, err := h.Calculator.CloseYearAccrual(r.Context(), chi.URLParam(r, "employeeID"), year)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, rec, reqID)
}
