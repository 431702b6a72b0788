// AngelaMos | 2026
// service_test.go

package answer

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
	"github.com/carterperez-dev/templates/qa-backend/internal/question"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

type memoryRepo struct {
	mu       sync.Mutex
	items    map[string]*Answer
	comments []Comment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]*Answer)}
}

func (m *memoryRepo) Create(_ context.Context, a *Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.QuestionID == a.QuestionID &&
			existing.UserID == a.UserID &&
			existing.Text == a.Text {
			return core.ErrDuplicateKey
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memoryRepo) Exists(_ context.Context, questionID, userID, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.QuestionID == questionID && a.UserID == userID && a.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) Update(_ context.Context, a *Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[a.ID]; !ok {
		return core.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memoryRepo) mutate(id string, fn func(*Answer)) (*Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	fn(a)
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id, status string) (*Answer, error) {
	return m.mutate(id, func(a *Answer) { a.Status = status })
}

func (m *memoryRepo) Acknowledge(_ context.Context, id, userID string) (*Answer, error) {
	return m.mutate(id, func(a *Answer) { a.AcknowledgedBy = &userID })
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

func (m *memoryRepo) List(_ context.Context, params SearchParams) ([]Answer, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Answer
	for _, a := range m.items {
		if params.QuestionID != "" && a.QuestionID != params.QuestionID {
			continue
		}
		if params.UserID != "" && a.UserID != params.UserID {
			continue
		}
		if params.Status != "" && a.Status != params.Status {
			continue
		}
		if params.Text != "" && !strings.Contains(strings.ToLower(a.Text), strings.ToLower(params.Text)) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memoryRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func (m *memoryRepo) CountForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.items {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) AddComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.comments) + 1)
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memoryRepo) Comments(_ context.Context, ids []string) (map[string][]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]Comment, len(ids))
	for _, c := range m.comments {
		out[c.AnswerID] = append(out[c.AnswerID], c)
	}
	return out, nil
}

type voteKey struct {
	kind   vote.Kind
	target string
	user   string
}

type voteStore struct {
	mu    sync.Mutex
	votes map[voteKey]vote.Direction
}

func (v *voteStore) Cast(_ context.Context, k vote.Kind, t, u string, d vote.Direction) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.votes[voteKey{k, t, u}] = d
	return nil
}

func (v *voteStore) Retract(_ context.Context, k vote.Kind, t, u string, d vote.Direction) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.votes[voteKey{k, t, u}] == d {
		delete(v.votes, voteKey{k, t, u})
	}
	return nil
}

func (v *voteStore) Tally(_ context.Context, k vote.Kind, t string) (vote.Tally, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	tally := vote.NewTally()
	for key, d := range v.votes {
		if key.kind != k || key.target != t {
			continue
		}
		if d == vote.Up {
			tally.Upvotes = append(tally.Upvotes, key.user)
		} else {
			tally.Downvotes = append(tally.Downvotes, key.user)
		}
	}
	return tally, nil
}

func (v *voteStore) Tallies(ctx context.Context, k vote.Kind, ids []string) (map[string]vote.Tally, error) {
	out := make(map[string]vote.Tally, len(ids))
	for _, id := range ids {
		out[id], _ = v.Tally(ctx, k, id)
	}
	return out, nil
}

func (v *voteStore) RecordView(context.Context, vote.Kind, string, string) (bool, error) {
	return true, nil
}

func (v *voteStore) CountViews(context.Context, vote.Kind, string) (int64, error) {
	return 0, nil
}

func (v *voteStore) CountViewsFor(context.Context, vote.Kind, []string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

type questions map[string]*question.Question

func (q questions) Find(_ context.Context, id string) (*question.Question, error) {
	found, ok := q[id]
	if !ok {
		return nil, core.NotFoundError("question")
	}
	return found, nil
}

type users map[string]string

func (u users) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	email, ok := u[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &auth.UserInfo{ID: id, Email: email}, nil
}

type posters map[string]error

func (p posters) CanPost(_ context.Context, userID string) error {
	return p[userID]
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	questions questions
	users     users
	posters   posters
	mailer    *recordingMailer
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMemoryRepo(),
		questions: questions{},
		users:     users{},
		posters:   posters{},
		mailer:    &recordingMailer{},
	}
	store := &voteStore{votes: make(map[voteKey]vote.Direction)}
	f.svc = NewService(f.repo, Deps{
		Questions: f.questions,
		Votes:     vote.NewEngine(store, nil),
		Posters:   f.posters,
		Users:     f.users,
		Mailer:    f.mailer,
	}, nil)
	return f
}

// ask registers a question owned by a fresh asker.
func (f *fixture) ask(title string, notify bool) *question.Question {
	asker := uuid.New().String()
	f.users[asker] = strings.ToLower(strings.ReplaceAll(title, " ", "")) + "@example.com"
	q := &question.Question{
		ID:              uuid.New().String(),
		UserID:          asker,
		Title:           title,
		SendAnswerEmail: notify,
	}
	f.questions[q.ID] = q
	return q
}

func (f *fixture) answer(t *testing.T, questionID, userID, text string) *Detail {
	t.Helper()
	d, err := f.svc.Create(context.Background(), userID, CreateAnswerRequest{
		QuestionID: questionID,
		Text:       text,
	})
	if err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return d
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	if !ok || appErr.StatusCode != status {
		t.Fatalf("err = %v, want status %d", err, status)
	}
}

func TestCreateNotifiesAskerWhenOptedIn(t *testing.T) {
	f := newFixture()
	q := f.ask("How do tides work", true)

	d := f.answer(t, q.ID, uuid.New().String(), "  The moon pulls the oceans.  ")
	if d.Answer.Text != "The moon pulls the oceans." {
		t.Fatalf("text = %q", d.Answer.Text)
	}
	if d.Answer.Status != StatusNotAnswered {
		t.Fatalf("status = %q", d.Answer.Status)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To != f.users[q.UserID] {
		t.Fatalf("mail to %q, want %q", msg.To, f.users[q.UserID])
	}
	if !strings.Contains(msg.Subject, q.Title) {
		t.Fatalf("subject %q misses the question title", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "The moon pulls the oceans.") {
		t.Fatalf("body misses the answer text: %s", msg.HTML)
	}
}

func TestCreateWithoutOptInSendsNothing(t *testing.T) {
	f := newFixture()
	q := f.ask("Quiet question", false)

	f.answer(t, q.ID, uuid.New().String(), "quiet answer")
	if len(f.mailer.sent) != 0 {
		t.Fatalf("sent %d mails, want none", len(f.mailer.sent))
	}
}

func TestMailFailureKeepsTheAnswer(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("smtp unavailable")
	q := f.ask("Will this be saved", true)

	_, err := f.svc.Create(context.Background(), uuid.New().String(), CreateAnswerRequest{
		QuestionID: q.ID,
		Text:       "yes it will",
	})
	wantStatus(t, err, http.StatusInternalServerError)

	n, _ := f.repo.Count(context.Background())
	if n != 1 {
		t.Fatalf("stored answers = %d, want 1", n)
	}
}

func TestDuplicateAnswerIsRejected(t *testing.T) {
	f := newFixture()
	q := f.ask("Duplicates", false)
	other := f.ask("Another question", false)
	author := uuid.New().String()

	f.answer(t, q.ID, author, "same text")

	_, err := f.svc.Create(context.Background(), author, CreateAnswerRequest{
		QuestionID: q.ID,
		Text:       "same text",
	})
	wantStatus(t, err, http.StatusBadRequest)

	f.answer(t, other.ID, author, "same text")
	f.answer(t, q.ID, uuid.New().String(), "same text")
}

func TestCreateOnMissingQuestion(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), uuid.New().String(), CreateAnswerRequest{
		QuestionID: uuid.New().String(),
		Text:       "orphan",
	})
	wantStatus(t, err, http.StatusNotFound)
}

func TestSuspendedUserCannotAnswerOrComment(t *testing.T) {
	f := newFixture()
	q := f.ask("Moderated", false)
	a := f.answer(t, q.ID, uuid.New().String(), "fine answer")

	suspended := uuid.New().String()
	f.posters[suspended] = core.ForbiddenError("account is suspended")

	_, err := f.svc.Create(context.Background(), suspended, CreateAnswerRequest{
		QuestionID: q.ID,
		Text:       "blocked",
	})
	wantStatus(t, err, http.StatusForbidden)

	_, err = f.svc.Comment(context.Background(), suspended, a.Answer.ID, CommentRequest{Text: "blocked"})
	wantStatus(t, err, http.StatusForbidden)
}

func TestCommentsKeepInsertionOrder(t *testing.T) {
	f := newFixture()
	q := f.ask("Comment order", false)
	a := f.answer(t, q.ID, uuid.New().String(), "commented answer")
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		if _, err := f.svc.Comment(ctx, uuid.New().String(), a.Answer.ID, CommentRequest{Text: text}); err != nil {
			t.Fatal(err)
		}
	}

	d, err := f.svc.Get(ctx, a.Answer.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(d.Comments))
	for _, c := range d.Comments {
		got = append(got, c.Text)
	}
	if strings.Join(got, ",") != "first,second,third" {
		t.Fatalf("comments = %v", got)
	}
}

func TestAcknowledgeLastWriterWins(t *testing.T) {
	f := newFixture()
	q := f.ask("Acknowledge", false)
	a := f.answer(t, q.ID, uuid.New().String(), "acknowledged answer")
	first, second := uuid.New().String(), uuid.New().String()

	if _, err := f.svc.Acknowledge(context.Background(), first, a.Answer.ID); err != nil {
		t.Fatal(err)
	}
	d, err := f.svc.Acknowledge(context.Background(), second, a.Answer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Answer.AcknowledgedBy == nil || *d.Answer.AcknowledgedBy != second {
		t.Fatalf("acknowledged by %v, want %s", d.Answer.AcknowledgedBy, second)
	}
}

func TestOnlyAuthorEditsOrDeletes(t *testing.T) {
	f := newFixture()
	q := f.ask("Ownership", false)
	author := uuid.New().String()
	a := f.answer(t, q.ID, author, "mine")
	ctx := context.Background()
	text := "edited"

	_, err := f.svc.Update(ctx, uuid.New().String(), a.Answer.ID, UpdateAnswerRequest{Text: &text})
	wantStatus(t, err, http.StatusForbidden)
	wantStatus(t, f.svc.Delete(ctx, uuid.New().String(), a.Answer.ID), http.StatusForbidden)

	d, err := f.svc.Update(ctx, author, a.Answer.ID, UpdateAnswerRequest{Text: &text})
	if err != nil {
		t.Fatal(err)
	}
	if d.Answer.Text != "edited" {
		t.Fatalf("text = %q", d.Answer.Text)
	}

	if err := f.svc.Delete(ctx, author, a.Answer.ID); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.Get(ctx, a.Answer.ID)
	wantStatus(t, err, http.StatusNotFound)
}

func TestVotesOnAnswersAreExclusive(t *testing.T) {
	f := newFixture()
	q := f.ask("Answer votes", false)
	a := f.answer(t, q.ID, uuid.New().String(), "vote on me")
	voter := uuid.New().String()
	ctx := context.Background()

	if _, err := f.svc.Vote(ctx, voter, a.Answer.ID, vote.OpDownvote); err != nil {
		t.Fatal(err)
	}
	tally, err := f.svc.Vote(ctx, voter, a.Answer.ID, vote.OpUpvote)
	if err != nil {
		t.Fatal(err)
	}
	if len(tally.Upvotes) != 1 || len(tally.Downvotes) != 0 {
		t.Fatalf("tally = %+v", tally)
	}

	_, err = f.svc.Vote(ctx, voter, uuid.New().String(), vote.OpUpvote)
	wantStatus(t, err, http.StatusNotFound)
}

func TestByQuestionFiltersAndChecksQuestion(t *testing.T) {
	f := newFixture()
	q := f.ask("Listed", false)
	other := f.ask("Elsewhere", false)
	f.answer(t, q.ID, uuid.New().String(), "one")
	f.answer(t, q.ID, uuid.New().String(), "two")
	f.answer(t, other.ID, uuid.New().String(), "three")

	list, total, err := f.svc.ByQuestion(context.Background(), q.ID, SearchParams{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(list))
	}

	_, _, err = f.svc.ByQuestion(context.Background(), uuid.New().String(), SearchParams{})
	wantStatus(t, err, http.StatusNotFound)
}
