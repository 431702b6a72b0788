// AngelaMos | 2026
// service_test.go

package tag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// memoryRepo enforces the case-insensitive unique name index.
type memoryRepo struct {
	mu    sync.Mutex
	items map[string]Tag
	usage map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]Tag{}, usage: map[string]int64{}}
}

func (m *memoryRepo) taken(name, exceptID string) bool {
	for id, t := range m.items {
		if id != exceptID && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (m *memoryRepo) Create(_ context.Context, t *Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(t.Name, "") {
		return core.ErrDuplicateKey
	}
	m.items[t.ID] = *t
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &t, nil
}

func (m *memoryRepo) Update(_ context.Context, t *Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t.ID]; !ok {
		return core.ErrNotFound
	}
	if m.taken(t.Name, t.ID) {
		return core.ErrDuplicateKey
	}
	m.items[t.ID] = *t
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) List(_ context.Context, _ core.PageParams, search string) ([]Tag, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Tag
	for _, t := range m.items {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(search)) {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) Usage(_ context.Context, name string) (int64, error) {
	return m.usage[name], nil
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	if !ok || appErr.StatusCode != status {
		t.Fatalf("err = %v, want status %d", err, status)
	}
}

func TestTagNamesAreUnique(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	golang, err := svc.Create(ctx, TagRequest{Name: "  golang "})
	if err != nil {
		t.Fatal(err)
	}
	if golang.Name != "golang" {
		t.Fatalf("name = %q", golang.Name)
	}

	_, err = svc.Create(ctx, TagRequest{Name: "GoLang"})
	wantStatus(t, err, http.StatusBadRequest)

	rust, err := svc.Create(ctx, TagRequest{Name: "rust"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Update(ctx, rust.ID, TagRequest{Name: "golang"})
	wantStatus(t, err, http.StatusBadRequest)

	if _, err := svc.Update(ctx, golang.ID, TagRequest{Name: "Golang"}); err != nil {
		t.Fatalf("renaming to own name with new case: %v", err)
	}
}

func TestGetReportsUsage(t *testing.T) {
	repo := newMemoryRepo()
	repo.usage["postgres"] = 4
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, TagRequest{Name: "postgres"})
	if err != nil {
		t.Fatal(err)
	}

	_, n, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("usage = %d, want 4", n)
	}

	_, _, err = svc.Get(ctx, "not-a-uuid")
	wantStatus(t, err, http.StatusNotFound)

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	wantStatus(t, svc.Delete(ctx, created.ID), http.StatusNotFound)
}

func TestWritesNeedAdmin(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	r := chi.NewRouter()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			core.HandleError(w, core.ForbiddenError("admin access required"))
		})
	}
	pass := func(next http.Handler) http.Handler { return next }
	NewHandler(svc).RegisterRoutes(r, pass, deny)

	req := httptest.NewRequest(http.MethodPost, "/tags/", strings.NewReader(`{"name":"go"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/tags/"+uuid.New().String(), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get = %d, want 404", rec.Code)
	}
}
