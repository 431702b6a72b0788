// AngelaMos | 2026
// authorize_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type fakeAdmins map[string]bool

func (f fakeAdmins) IsAdmin(_ context.Context, userID string) (bool, error) {
	return f[userID], nil
}

func ownersLookup(owners map[string]string) OwnerLookup {
	return func(_ context.Context, id string) (string, error) {
		owner, ok := owners[id]
		if !ok {
			return "", fmt.Errorf("lookup: %w", core.ErrNotFound)
		}
		return owner, nil
	}
}

func newGuardedRouter(caps ...Capability) http.Handler {
	r := chi.NewRouter()
	r.With(Authorize(caps...)).Patch("/questions/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func doAs(t *testing.T, h http.Handler, userID, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, path, nil)
	if userID != "" {
		req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthorize(t *testing.T) {
	admins := fakeAdmins{"admin-1": true, "demoted": false}
	owners := map[string]string{"q1": "owner-1"}

	h := newGuardedRouter(Admin(admins), Owner(ownersLookup(owners), "id"))

	tests := []struct {
		name   string
		userID string
		path   string
		want   int
	}{
		{"anonymous", "", "/questions/q1/status", http.StatusUnauthorized},
		{"admin", "admin-1", "/questions/q1/status", http.StatusOK},
		{"owner", "owner-1", "/questions/q1/status", http.StatusOK},
		{"stranger", "stranger", "/questions/q1/status", http.StatusForbidden},
		{"admin row without flag", "demoted", "/questions/q1/status", http.StatusForbidden},
		{"missing entity", "stranger", "/questions/nope/status", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAs(t, h, tt.userID, tt.path)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestAuthorizeForbiddenEnvelope(t *testing.T) {
	h := newGuardedRouter(Admin(fakeAdmins{}))
	rec := doAs(t, h, "someone", "/questions/q1/status")

	var body core.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != "FORBIDDEN" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestAdminShortCircuitsOwnerLookup(t *testing.T) {
	called := false
	lookup := func(_ context.Context, _ string) (string, error) {
		called = true
		return "", nil
	}

	h := newGuardedRouter(Admin(fakeAdmins{"a": true}), Owner(lookup, "id"))
	if rec := doAs(t, h, "a", "/questions/x/status"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if called {
		t.Error("owner lookup ran although admin already granted")
	}
}
