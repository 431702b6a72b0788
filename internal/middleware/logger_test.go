// AngelaMos | 2026
// logger_test.go

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	id, ok := v[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &AccessTokenClaims{UserID: id}, nil
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLoggerRecordsAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestID, Tracing, Logger(logger))
	r.With(Authenticator(staticVerifier{"tok": "user-7"})).Get("/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := logLine(t, &buf)
	if line["user_id"] != "user-7" {
		t.Errorf("user_id = %v, want user-7", line["user_id"])
	}
	if line["request_id"] == "" || line["request_id"] == nil {
		t.Error("request_id missing")
	}
	if line["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", line["level"])
	}
}

func TestLoggerLevelsFollowStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(Logger(logger))
	r.With(Authenticator(staticVerifier{})).Get("/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

	line := logLine(t, &buf)
	if line["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", line["level"])
	}
	if _, ok := line["user_id"]; ok {
		t.Error("anonymous request logged a user")
	}
}
