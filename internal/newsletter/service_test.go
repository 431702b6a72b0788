// AngelaMos | 2026
// service_test.go

package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
)

type memoryRepo struct {
	mu          sync.Mutex
	subscribers map[string]Subscriber
	records     map[string]*Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		subscribers: map[string]Subscriber{},
		records:     map[string]*Record{},
	}
}

func (m *memoryRepo) emailTaken(email, exceptID string) bool {
	for id, s := range m.subscribers {
		if id != exceptID && strings.EqualFold(s.Email, email) {
			return true
		}
	}
	return false
}

func (m *memoryRepo) CreateSubscriber(_ context.Context, s *Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(s.Email, "") {
		return core.ErrDuplicateKey
	}
	s.CreatedAt = time.Now()
	m.subscribers[s.ID] = *s
	return nil
}

func (m *memoryRepo) GetSubscriber(_ context.Context, id string) (*Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscribers[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &s, nil
}

func (m *memoryRepo) UpdateSubscriber(_ context.Context, s *Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[s.ID]; !ok {
		return core.ErrNotFound
	}
	if m.emailTaken(s.Email, s.ID) {
		return core.ErrDuplicateKey
	}
	m.subscribers[s.ID] = *s
	return nil
}

func (m *memoryRepo) DeleteSubscriber(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.subscribers, id)
	return nil
}

func (m *memoryRepo) ListSubscribers(_ context.Context, _ core.PageParams, _ string) ([]Subscriber, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) CountSubscribers(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.subscribers)), nil
}

func (m *memoryRepo) SubscriberEmails(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		out = append(out, s.Email)
	}
	return out, nil
}

func (m *memoryRepo) CreateRecord(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memoryRepo) GetRecord(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepo) UpdateRecord(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memoryRepo) SetRecordStatus(_ context.Context, id, status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return core.ErrNotFound
	}
	r.Status, r.Error = status, errMsg
	return nil
}

func (m *memoryRepo) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memoryRepo) ListRecords(_ context.Context, params RecordSearch) ([]Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if params.Status != "" && r.Status != params.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) BroadcastExists(_ context.Context, sender, subject, content string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Sender == sender && r.Subject == subject && r.Content == content {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) statuses() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.records))
	for _, r := range m.records {
		out[r.Email] = r.Status
	}
	return out
}

type accounts []string

func (a accounts) Emails(context.Context) ([]string, error) {
	return a, nil
}

// flakyMailer fails for the listed addresses and tracks peak concurrency.
type flakyMailer struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	sent     []string
}

func (m *flakyMailer) Send(_ context.Context, msg mail.Message) error {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)

	if m.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg.To)
	m.mu.Unlock()
	return nil
}

func newService(repo *memoryRepo, users accounts, m *flakyMailer, concurrency int) *Service {
	cfg := config.NewsletterConfig{Concurrency: concurrency}
	return NewService(repo, users, m, cfg, "Forum", "news@forum.test", nil)
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	if !ok || appErr.StatusCode != status {
		t.Fatalf("err = %v, want status %d", err, status)
	}
}

func TestRecipientsDeduplicateCaseInsensitively(t *testing.T) {
	got := Recipients(
		[]string{"Ana@Example.com", "bo@example.com", " "},
		[]string{"ana@example.com", "cy@example.com", "BO@EXAMPLE.COM"},
	)
	want := []string{"Ana@Example.com", "bo@example.com", "cy@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Recipients = %v, want %v", got, want)
	}
}

func TestSubscribeRejectsDuplicateEmail(t *testing.T) {
	svc := newService(newMemoryRepo(), nil, &flakyMailer{}, 1)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeRequest{Email: " Reader@Example.com "})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Email != "reader@example.com" {
		t.Fatalf("email = %q", sub.Email)
	}

	_, err = svc.Subscribe(ctx, SubscribeRequest{Email: "READER@example.com"})
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.GetSubscriber(ctx, uuid.New().String())
	wantStatus(t, err, http.StatusNotFound)
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	repo := newMemoryRepo()
	m := &flakyMailer{fail: map[string]bool{"bad@example.com": true}}
	svc := newService(repo, accounts{"a@example.com", "bad@example.com"}, m, 2)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, SubscribeRequest{Email: "A@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Subscribe(ctx, SubscribeRequest{Email: "sub@example.com"}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Broadcast(ctx, BroadcastRequest{Subject: "Weekly", Content: "<p>hi</p>"})
	if err != nil {
		t.Fatal(err)
	}

	if result.Recipients != 3 || result.Sent != 2 {
		t.Fatalf("result = %+v", result)
	}
	if !reflect.DeepEqual(result.Failed, []string{"bad@example.com"}) {
		t.Fatalf("failed = %v", result.Failed)
	}

	statuses := repo.statuses()
	want := map[string]string{
		"a@example.com":   StatusSent,
		"bad@example.com": StatusFailed,
		"sub@example.com": StatusSent,
	}
	if !reflect.DeepEqual(statuses, want) {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestBroadcastLogsFirstFailedDelivery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := &flakyMailer{fail: map[string]bool{"bad@example.com": true}}
	svc := NewService(newMemoryRepo(), accounts{"ok@example.com", "bad@example.com"}, m,
		config.NewsletterConfig{Concurrency: 1}, "Forum", "news@forum.test", logger)

	if _, err := svc.Broadcast(context.Background(), BroadcastRequest{Subject: "s", Content: "c"}); err != nil {
		t.Fatal(err)
	}

	var summary map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if entry["msg"] == "newsletter broadcast finished with failures" {
			summary = entry
		}
	}
	if summary == nil {
		t.Fatalf("no failure summary logged:\n%s", buf.String())
	}
	first, _ := summary["first_failure"].(string)
	if !strings.Contains(first, "bad@example.com") || !strings.Contains(first, "mailbox unavailable") {
		t.Fatalf("first_failure = %q", first)
	}
	if summary["failed"] != float64(1) {
		t.Errorf("failed = %v, want 1", summary["failed"])
	}
}

func TestBroadcastRejectsRepeatAndEmptyAudience(t *testing.T) {
	ctx := context.Background()

	empty := newService(newMemoryRepo(), nil, &flakyMailer{}, 1)
	_, err := empty.Broadcast(ctx, BroadcastRequest{Subject: "s", Content: "c"})
	wantStatus(t, err, http.StatusBadRequest)

	svc := newService(newMemoryRepo(), accounts{"a@example.com"}, &flakyMailer{}, 1)
	req := BroadcastRequest{Subject: "Launch", Content: "We are live"}
	if _, err := svc.Broadcast(ctx, req); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Broadcast(ctx, req)
	wantStatus(t, err, http.StatusBadRequest)

	req.From = "editor@forum.test"
	if _, err := svc.Broadcast(ctx, req); err != nil {
		t.Fatalf("same content from another sender: %v", err)
	}
}

func TestBroadcastHonorsConcurrencyLimit(t *testing.T) {
	users := make(accounts, 12)
	for i := range users {
		users[i] = uuid.New().String() + "@example.com"
	}
	m := &flakyMailer{delay: 10 * time.Millisecond}
	svc := newService(newMemoryRepo(), users, m, 3)

	result, err := svc.Broadcast(context.Background(), BroadcastRequest{Subject: "s", Content: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Sent != len(users) {
		t.Fatalf("sent = %d, want %d", result.Sent, len(users))
	}
	if peak := m.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	svc := newService(newMemoryRepo(), accounts{"a@example.com"}, &flakyMailer{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Broadcast(ctx, BroadcastRequest{Subject: "s", Content: "c"}); err == nil {
		t.Fatal("expected an error for a cancelled broadcast")
	}
}

func TestUpdateRecordClearsErrorWhenResolved(t *testing.T) {
	repo := newMemoryRepo()
	m := &flakyMailer{fail: map[string]bool{"bad@example.com": true}}
	svc := newService(repo, accounts{"bad@example.com"}, m, 1)
	ctx := context.Background()

	if _, err := svc.Broadcast(ctx, BroadcastRequest{Subject: "s", Content: "c"}); err != nil {
		t.Fatal(err)
	}
	failed, _, _ := svc.ListRecords(ctx, RecordSearch{Status: StatusFailed})
	if len(failed) != 1 || failed[0].Error == "" {
		t.Fatalf("failed records = %+v", failed)
	}

	sent := StatusSent
	rec, err := svc.UpdateRecord(ctx, failed[0].ID, UpdateRecordRequest{Status: &sent})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusSent || rec.Error != "" {
		t.Fatalf("record = %+v", rec)
	}
}
