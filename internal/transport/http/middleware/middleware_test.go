package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", seen)
}

func TestActorMiddleware(t *testing.T) {
	var seen string
	handler := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetActorID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderActorID, " manager-1 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "manager-1", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Empty(t, seen)
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestLoggerRecordsStatusWithNilCollector(t *testing.T) {
	handler := Logger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestBodyLimitRejectsLargeWrites(t *testing.T) {
	var readErr error
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		readErr = json.NewDecoder(r.Body).Decode(&v)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"employeeId":"emp-1"}`)))
	assert.Error(t, readErr)
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRateLimitUsesActorBeforeIP(t *testing.T) {
	limited := Actor(RateLimit(1, NewMemoryLimiter(time.Minute))(http.HandlerFunc(noContent)))

	send := func(actor, addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/batches", nil)
		req.RemoteAddr = addr
		if actor != "" {
			req.Header.Set(HeaderActorID, actor)
		}
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("manager-1", "198.51.100.11:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("manager-1", "198.51.100.12:3333"))
	assert.Equal(t, http.StatusNoContent, send("", "198.51.100.12:3333"))
	assert.Equal(t, http.StatusTooManyRequests, send("", "198.51.100.12:4444"))
}

func TestRateLimitIgnoresReads(t *testing.T) {
	limited := RateLimit(1, NewMemoryLimiter(time.Minute))(http.HandlerFunc(noContent))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestMemoryLimiterResetsWindow(t *testing.T) {
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(time.Minute)
	limiter.now = func() time.Time { return clock }

	count, _, _ := limiter.Hit(context.Background(), "k")
	assert.Equal(t, 1, count)
	count, resetIn, _ := limiter.Hit(context.Background(), "k")
	assert.Equal(t, 2, count)
	assert.Equal(t, time.Minute, resetIn)

	clock = clock.Add(2 * time.Minute)
	count, _, _ = limiter.Hit(context.Background(), "k")
	assert.Equal(t, 1, count)
}

func TestRequestHashDeterministic(t *testing.T) {
	assert.Equal(t, RequestHash([]byte("payload")), RequestHash([]byte("payload")))
	assert.NotEqual(t, RequestHash([]byte("payload")), RequestHash([]byte("other")))
}

func TestIdempotentReplaysFirstResponse(t *testing.T) {
	calls := 0
	handler := Idempotent(NewMemoryIdempotencyStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"st-1"}}`))
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/severance/settlements", bytes.NewBufferString(body))
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send(`{"employeeId":"emp-1"}`)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := send(`{"employeeId":"emp-1"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	conflict := send(`{"employeeId":"emp-2"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotentSkipsFailures(t *testing.T) {
	calls := 0
	handler := Idempotent(NewMemoryIdempotencyStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}
