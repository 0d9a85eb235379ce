package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpayroll/internal/app/server"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/platform/config"
	"hrpayroll/internal/platform/jobs"
	"hrpayroll/internal/platform/metrics"
	"hrpayroll/internal/testutil/memstore"
	"hrpayroll/internal/transport/http/middleware"
)

var hire = time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
	Error     *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type harness struct {
	t       *testing.T
	handler http.Handler
	legal   *memstore.Legal
	audit   *memstore.Audit
}

func testConfig() config.Config {
	return config.Config{
		Environment:      "test",
		MaxBodyBytes:     1 << 20,
		BatchConcurrency: 2,
		RateLimitWindow:  time.Minute,
		MetricsEnabled:   true,
	}
}

func effective2025() legal.Configuration {
	cfg := legal.Defaults(2025, money.Must("1423500"), money.Must("200000"))
	cfg.Effective = true
	return cfg
}

func newHarness(t *testing.T, cfg config.Config, configs ...legal.Configuration) *harness {
	t.Helper()
	birth := time.Date(1990, time.May, 4, 0, 0, 0, 0, time.UTC)
	employees := memstore.NewEmployees(
		core.Employee{ID: "emp-1", NationalID: "1020304050", FirstName: "Ana", LastName: "Rojas", BirthDate: &birth,
			Status: core.EmployeeStatusActive, BaseSalary: money.Must("1423500"), RiskClass: 1, HireDate: hire},
		core.Employee{ID: "emp-2", NationalID: "79888777", FirstName: "Luis", LastName: "Mora",
			Status: core.EmployeeStatusActive, BaseSalary: money.Must("3000000"), RiskClass: 2, HireDate: hire},
	)
	contracts := memstore.NewContracts(
		core.Contract{ID: "ct-1", EmployeeID: "emp-1", Type: core.ContractIndefinite,
			Salary: money.Must("1423500"), StartDate: hire, Active: true},
	)
	records := memstore.NewTimeRecords(
		core.DailyTimeRecord{EmployeeID: "emp-1", Date: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			OrdinaryHours: money.Must("8"), DaytimeOvertime: money.Must("2")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	jobService := jobs.NewWithLog(jobs.NewMemoryRunLog(), 4, nil)
	jobService.Start(ctx)

	h := &harness{t: t, legal: memstore.NewLegal(configs...), audit: &memstore.Audit{}}
	reg := prometheus.NewRegistry()
	h.handler = server.NewRouter(cfg, server.Deps{
		Employees:   employees,
		Contracts:   contracts,
		TimeRecords: records,
		Legal:       h.legal,
		Registry:    h.legal,
		Runs:        memstore.NewRuns(),
		Benefits:    memstore.NewBenefits(),
		Statements:  memstore.NewStatements(),
		Audit:       h.audit,
		Jobs:        jobService,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Now:         func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) },
	})
	return h
}

func (h *harness) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderActorID, "manager-1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// invalidFields lists the field names of a validation_error response.
func invalidFields(t *testing.T, env envelope) []string {
	t.Helper()
	require.NotNil(t, env.Error)
	require.Equal(t, "validation_error", env.Error.Code)
	raw, err := json.Marshal(env.Error.Details["fields"])
	require.NoError(t, err)
	var issues []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(raw, &issues))
	names := make([]string, 0, len(issues))
	for _, issue := range issues {
		names = append(names, issue.Field)
	}
	return names
}

type runBody struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApprovedBy string `json:"approvedBy"`
	Earnings   struct {
		BaseSalary      string `json:"baseSalary"`
		DaytimeOvertime string `json:"daytimeOvertime"`
	} `json:"earnings"`
	Totals struct {
		NetPay string `json:"netPay"`
	} `json:"totals"`
}

func TestPayrollRunLifecycle(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, env := h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"employeeId": "emp-1", "period": "2025-03"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[runBody](t, env.Data)
	assert.Equal(t, "calculated", run.Status)
	assert.NotEmpty(t, run.Totals.NetPay)
	assert.NotEmpty(t, env.RequestID)

	_, again := h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"employeeId": "emp-1", "period": "2025-03-20"})
	assert.Equal(t, run.ID, decode[runBody](t, again.Data).ID)

	rec, _ = h.do(http.MethodGet, "/api/v1/payroll/runs?period=2025-03", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	_, env = h.do(http.MethodGet, "/api/v1/payroll/runs/pending", nil)
	assert.Len(t, decode[[]runBody](t, env.Data), 1)

	rec, env = h.do(http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[runBody](t, env.Data)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "manager-1", approved.ApprovedBy)

	rec, _ = h.do(http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, env = h.do(http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/post", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "posted", decode[runBody](t, env.Data).Status)

	rec, env = h.do(http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/recalculate", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)

	rec, env = h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"employeeId": "emp-1", "period": "2025-03"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", env.Error.Code)

	assert.Equal(t, []string{
		payroll.AuditActionCalculated, payroll.AuditActionCalculated,
		payroll.AuditActionApproved, payroll.AuditActionPaid, payroll.AuditActionPosted,
	}, h.audit.Actions())

	rec, _ = h.do(http.MethodGet, "/api/v1/audit/events?action="+payroll.AuditActionApproved, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
}

func TestPayrollOvertimeValue(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, env := h.do(http.MethodGet, "/api/v1/payroll/overtime?employeeId=emp-1&period=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// 2 daytime overtime hours at 5931.25 x 1.25.
	assert.Equal(t, "14828.12", decode[map[string]string](t, env.Data)["overtimeValue"])
}

func TestPayrollValidation(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, env := h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "March"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, invalidFields(t, env), "employeeId")
	assert.Contains(t, invalidFields(t, env), "period")

	rec, env = h.do(http.MethodPost, "/api/v1/payroll/runs", `{"employeeId":"emp-1","period":"2025-03","tenant":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", env.Error.Code)

	rec, _ = h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"employeeId": "nobody", "period": "2025-03"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.do(http.MethodGet, "/api/v1/payroll/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingLegalConfigurationIsUnavailable(t *testing.T) {
	h := newHarness(t, testConfig())

	rec, env := h.do(http.MethodPost, "/api/v1/payroll/runs", map[string]string{"employeeId": "emp-1", "period": "2025-03"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no_legal_configuration", env.Error.Code)

	rec, _ = h.do(http.MethodGet, "/api/v1/legal/configurations/effective", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type batchBody struct {
	Requested      int `json:"requested"`
	SucceededCount int `json:"succeededCount"`
}

func TestBatchSyncAndAsync(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, env := h.do(http.MethodPost, "/api/v1/payroll/batches", map[string]any{
		"period": "2025-04", "employeeIds": []string{"emp-1", "emp-2"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[batchBody](t, env.Data)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 2, result.SucceededCount)

	rec, env = h.do(http.MethodPost, "/api/v1/payroll/batches", map[string]any{"period": "2025-05", "async": true})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID := decode[map[string]string](t, env.Data)["jobId"]
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		_, env := h.do(http.MethodGet, "/api/v1/jobs/"+jobID, nil)
		var run jobs.Run
		return json.Unmarshal(env.Data, &run) == nil && run.Status == jobs.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	_, env = h.do(http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	details := decode[batchBody](t, decode[jobs.Run](t, env.Data).Details)
	assert.Equal(t, 2, details.SucceededCount)

	rec, _ = h.do(http.MethodPost, "/api/v1/payroll/periods/2025-04/approve", map[string]string{"approverId": "cfo"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(http.MethodGet, "/api/v1/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.do(http.MethodPost, "/api/v1/payroll/batches", map[string]any{"period": "2025-05", "employeeIds": []string{" "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type statementBody struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Indemnity string `json:"indemnity"`
	Total     string `json:"total"`
	Complete  bool   `json:"complete"`
}

func TestSettlementIsIdempotent(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())
	body := map[string]string{
		"employeeId":      "emp-1",
		"terminationDate": "2025-06-30",
		"reason":          "dismissal_without_just_cause",
	}

	rec, env := h.do(http.MethodPost, "/api/v1/severance/settlements", body, middleware.HeaderIdempotencyKey, "settle-emp-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[statementBody](t, env.Data)
	assert.True(t, first.Complete)
	assert.Equal(t, "dismissal_without_just_cause", first.Reason)
	assert.NotEqual(t, "0", first.Indemnity)

	rec, env = h.do(http.MethodPost, "/api/v1/severance/settlements", body, middleware.HeaderIdempotencyKey, "settle-emp-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.ID, decode[statementBody](t, env.Data).ID)

	body["reason"] = "voluntary_resignation"
	rec, _ = h.do(http.MethodPost, "/api/v1/severance/settlements", body, middleware.HeaderIdempotencyKey, "settle-emp-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = h.do(http.MethodGet, "/api/v1/severance/settlements/"+first.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Total, decode[statementBody](t, env.Data).Total)

	rec, _ = h.do(http.MethodGet, "/api/v1/severance/settlements/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeveranceComponents(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, env := h.do(http.MethodGet, "/api/v1/severance/employees/emp-1/accrual?start=2025-01-01&end=2025-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]string](t, env.Data)["accrual"])

	rec, env = h.do(http.MethodGet, "/api/v1/severance/employees/emp-1/service-bonus?start=2025-06-30&end=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ElementsMatch(t, []string{"start", "end"}, invalidFields(t, env))

	rec, env = h.do(http.MethodGet, "/api/v1/severance/employees/emp-1/indemnity?contractId=ct-1&reason=voluntary_resignation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0", decode[map[string]string](t, env.Data)["indemnity"])

	rec, env = h.do(http.MethodGet, "/api/v1/severance/employees/emp-1/indemnity?contractId=ct-1&reason=fired", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, invalidFields(t, env), "reason")

	rec, _ = h.do(http.MethodGet, "/api/v1/severance/employees/emp-1/accrual-interest?year=25", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(http.MethodPost, "/api/v1/severance/employees/emp-1/accruals/2024/close", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

type resultBody struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func TestComplianceChecks(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	_, env := h.do(http.MethodPost, "/api/v1/compliance/minimum_wage", map[string]string{"salary": "1000000"})
	assert.False(t, decode[resultBody](t, env.Data).OK)

	_, env = h.do(http.MethodPost, "/api/v1/compliance/national_id", map[string]string{"nationalId": "1.020.304.050"})
	assert.True(t, decode[resultBody](t, env.Data).OK)

	rec, env := h.do(http.MethodPost, "/api/v1/compliance/contributions", map[string]string{"base": "1423500"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, invalidFields(t, env), "health")

	rec, _ = h.do(http.MethodPost, "/api/v1/compliance/retirement_age", map[string]string{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = h.do(http.MethodPost, "/api/v1/compliance/reviews", map[string]string{"employeeId": "emp-1", "period": "2025-03"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	review := decode[struct {
		OK     bool                  `json:"ok"`
		Checks map[string]resultBody `json:"checks"`
	}](t, env.Data)
	assert.True(t, review.OK)
	assert.Contains(t, review.Checks, "minimum_age")
	assert.Contains(t, review.Checks, "contract")

	_, env = h.do(http.MethodPost, "/api/v1/compliance/reviews", map[string]string{"employeeId": "emp-2"})
	review = decode[struct {
		OK     bool                  `json:"ok"`
		Checks map[string]resultBody `json:"checks"`
	}](t, env.Data)
	assert.NotContains(t, review.Checks, "contract")
	assert.NotContains(t, review.Checks, "minimum_age")
}

func TestLegalPublishAndActivate(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	next := legal.Defaults(2026, money.Must("1500000"), money.Must("210000"))
	rec, _ := h.do(http.MethodPost, "/api/v1/legal/configurations", next)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = h.do(http.MethodPost, "/api/v1/legal/configurations", next)
	assert.Equal(t, http.StatusConflict, rec.Code)

	broken := next
	broken.Year = 2027
	broken.MinimumWage = money.Must("0")
	rec, _ = h.do(http.MethodPost, "/api/v1/legal/configurations", broken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(http.MethodPost, "/api/v1/legal/configurations/2026/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, env := h.do(http.MethodGet, "/api/v1/legal/configurations/effective", nil)
	assert.Equal(t, 2026, decode[legal.Configuration](t, env.Data).Year)

	_, env = h.do(http.MethodGet, "/api/v1/legal/configurations", nil)
	assert.Len(t, decode[[]legal.Configuration](t, env.Data), 2)

	rec, _ = h.do(http.MethodGet, "/api/v1/legal/configurations/1999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	h := newHarness(t, testConfig(), effective2025())

	rec, _ := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = h.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.do(http.MethodGet, "/api/v1/payroll/runs/pending", nil)
	rec, _ = h.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hrpayroll_http_requests_total")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestWritesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	h := newHarness(t, cfg, effective2025())

	body := map[string]string{"employeeId": "emp-1", "period": "2025-03"}
	rec, _ := h.do(http.MethodPost, "/api/v1/payroll/runs", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, env := h.do(http.MethodPost, "/api/v1/payroll/runs", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", env.Error.Code)

	rec, _ = h.do(http.MethodGet, "/api/v1/payroll/runs?period=2025-03", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
