package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store/memory"
)

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	st := memory.New()
	mgr, err := circuitbreaker.NewManager(st, circuitbreaker.Settings{
		FailureThreshold: 2,
		ResetTimeout:     30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	eng := circuitbreaker.NewEngine(mgr)
	return newRouter("demo", st, eng, logger.Nop()), st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_TestEndpointTripsToFallback(t *testing.T) {
	router, _ := newTestRouter(t)

	// While closed, the failing downstream surfaces as a gateway error.
	for i := 0; i < 2; i++ {
		if rec := get(t, router, "/test"); rec.Code != http.StatusBadGateway {
			t.Fatalf("call %d: status = %d, want %d", i+1, rec.Code, http.StatusBadGateway)
		}
	}

	// Two failures opened the breaker; now the fallback answers.
	rec := get(t, router, "/test")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "Fallback!" {
		t.Errorf("body = %q, want %q", got, "Fallback!")
	}
}

func TestRouter_StateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	get(t, router, "/test")
	get(t, router, "/test")

	rec := get(t, router, "/state/demo:getTestString")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"OPEN"`) || !strings.Contains(body, `"failure_count":2`) {
		t.Errorf("expected an open snapshot with two failures, got %s", body)
	}
}

func TestRouter_StateEndpoint_MissingKey(t *testing.T) {
	router, _ := newTestRouter(t)

	if rec := get(t, router, "/state/never:seen"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/state/never:seen")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated X-Request-Id header")
	}
}
