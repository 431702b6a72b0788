// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReadiness(t *testing.T) {
	ok := CheckerFunc(func(context.Context) error { return nil })
	down := CheckerFunc(func(context.Context) error { return errors.New("boom") })

	tests := []struct {
		name     string
		checkers map[string]Checker
		want     int
		status   string
	}{
		{"all healthy", map[string]Checker{"database": ok, "redis": ok}, http.StatusOK, "ok"},
		{"one down", map[string]Checker{"database": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
		{"nil checker", map[string]Checker{"database": nil}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.checkers)
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}

			var body ReadinessResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.status {
				t.Errorf("body status = %q, want %q", body.Status, tt.status)
			}
			if len(body.Checks) != len(tt.checkers) {
				t.Errorf("checks = %d, want %d", len(body.Checks), len(tt.checkers))
			}
		})
	}
}

func TestShutdownFlipsLiveness(t *testing.T) {
	h := NewHandler(nil)
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestNotReadyUntilMarked(t *testing.T) {
	h := NewHandler(nil)
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
