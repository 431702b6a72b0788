// AngelaMos | 2026
// service.go

package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
	"github.com/carterperez-dev/templates/qa-backend/internal/media"
	"github.com/carterperez-dev/templates/qa-backend/internal/question"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

var errDuplicateAnswer = core.BadRequestError("you have already posted this answer")

type Poster interface {
	CanPost(ctx context.Context, userID string) error
}

type QuestionFinder interface {
	Find(ctx context.Context, id string) (*question.Question, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Service struct {
	repo      Repository
	questions QuestionFinder
	votes     *vote.Engine
	posters   Poster
	users     UserLookup
	mailer    mail.Mailer
	uploader  media.Uploader
	logger    *slog.Logger
}

type Deps struct {
	Questions QuestionFinder
	Votes     *vote.Engine
	Posters   Poster
	Users     UserLookup
	Mailer    mail.Mailer
	Uploader  media.Uploader
}

func NewService(repo Repository, deps Deps, logger *slog.Logger) *Service {
	if deps.Uploader == nil {
		deps.Uploader = media.NoopUploader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		questions: deps.Questions,
		votes:     deps.Votes,
		posters:   deps.Posters,
		users:     deps.Users,
		mailer:    deps.Mailer,
		uploader:  deps.Uploader,
		logger:    logger,
	}
}

// Create stores the answer and, when the asker opted in, mails them. A
// failed notification is reported as an internal error but the answer is
// already saved.
func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateAnswerRequest,
) (*Detail, error) {
	if err := s.posters.CanPost(ctx, userID); err != nil {
		return nil, err
	}

	q, err := s.questions.Find(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, core.BadRequestError("text is required")
	}
	dup, err := s.repo.Exists(ctx, q.ID, userID, text)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, errDuplicateAnswer
	}

	id := uuid.New().String()
	urls, err := media.UploadAll(ctx, s.uploader, req.Images, "answer-"+id)
	if err != nil {
		return nil, fmt.Errorf("upload answer images: %w", err)
	}

	a := &Answer{
		ID:         id,
		QuestionID: q.ID,
		UserID:     userID,
		Text:       text,
		Status:     StatusNotAnswered,
		ImageURLs:  urls,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errDuplicateAnswer
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "answer created",
		"answer_id", a.ID,
		"question_id", q.ID,
		"user_id", userID,
	)

	if q.SendAnswerEmail {
		if err := s.notify(ctx, q, a); err != nil {
			s.logger.ErrorContext(ctx, "answer notification failed",
				"answer_id", a.ID,
				"question_id", q.ID,
				"error", err,
			)
			return nil, core.InternalError("answer saved but the notification email could not be sent", err)
		}
	}

	return &Detail{Answer: a, Tally: vote.NewTally()}, nil
}

func (s *Service) notify(ctx context.Context, q *question.Question, a *Answer) error {
	ctx, span := core.StartSpan(ctx, "answer.notify",
		attribute.String("question.id", q.ID),
		attribute.String("answer.id", a.ID),
	)
	defer span.End()

	asker, err := s.users.GetByID(ctx, q.UserID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("load asker: %w", err)
	}

	msg, err := mail.AnswerNotification(asker.Email, mail.AnswerNotice{
		QuestionTitle: q.Title,
		AnswerText:    a.Text,
		ImageURLs:     a.ImageURLs,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		core.SetSpanError(ctx, err)
		return err
	}
	return nil
}

func (s *Service) Find(ctx context.Context, id string) (*Answer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("answer")
	}
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("answer")
	}
	return a, err
}

// QuestionOwnerOf resolves the owner of the question an answer belongs to.
// It satisfies middleware.OwnerLookup.
func (s *Service) QuestionOwnerOf(ctx context.Context, id string) (string, error) {
	a, err := s.Find(ctx, id)
	if err != nil {
		return "", err
	}
	q, err := s.questions.Find(ctx, a.QuestionID)
	if err != nil {
		return "", err
	}
	return q.UserID, nil
}

func (s *Service) details(ctx context.Context, list []Answer) ([]Detail, error) {
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	tallies, err := s.votes.Tallies(ctx, vote.KindAnswer, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.Comments(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Detail, len(list))
	for i := range list {
		out[i] = Detail{
			Answer:   &list[i],
			Tally:    tallies[list[i].ID],
			Comments: comments[list[i].ID],
		}
	}
	return out, nil
}

func (s *Service) detail(ctx context.Context, a *Answer) (*Detail, error) {
	out, err := s.details(ctx, []Answer{*a})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	a, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a)
}

func (s *Service) List(
	ctx context.Context,
	params SearchParams,
) ([]Detail, int64, error) {
	list, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.details(ctx, list)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ByQuestion lists the answers of an existing question.
func (s *Service) ByQuestion(
	ctx context.Context,
	questionID string,
	params SearchParams,
) ([]Detail, int64, error) {
	if _, err := s.questions.Find(ctx, questionID); err != nil {
		return nil, 0, err
	}
	params.QuestionID = questionID
	return s.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountForUser(ctx context.Context, userID string) (int64, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return 0, core.NotFoundError("user")
	}
	return s.repo.CountForUser(ctx, userID)
}

func (s *Service) owned(ctx context.Context, userID, id string) (*Answer, error) {
	a, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, core.ForbiddenError("you can only modify your own answers")
	}
	return a, nil
}

func (s *Service) Update(
	ctx context.Context,
	userID, id string,
	req UpdateAnswerRequest,
) (*Detail, error) {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, core.BadRequestError("text is required")
		}
		a.Text = text
	}
	if req.Images != nil {
		urls, err := media.UploadAll(ctx, s.uploader, *req.Images, "answer-"+a.ID)
		if err != nil {
			return nil, fmt.Errorf("upload answer images: %w", err)
		}
		a.ImageURLs = urls
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errDuplicateAnswer
		}
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("answer")
		}
		return nil, err
	}
	return s.detail(ctx, a)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.remove(ctx, id)
}

func (s *Service) AdminDelete(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	if err := s.remove(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "answer removed by admin", "answer_id", id)
	return nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("answer")
	}
	return err
}

func (s *Service) Vote(
	ctx context.Context,
	userID, id string,
	op vote.Op,
) (vote.Tally, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return vote.Tally{}, err
	}
	return s.votes.Do(ctx, vote.KindAnswer, id, userID, op)
}

// Acknowledge records the caller as the acknowledger; the latest caller wins.
func (s *Service) Acknowledge(ctx context.Context, userID, id string) (*Detail, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return nil, err
	}
	a, err := s.repo.Acknowledge(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a)
}

func (s *Service) Comment(
	ctx context.Context,
	userID, id string,
	req CommentRequest,
) (*Detail, error) {
	if err := s.posters.CanPost(ctx, userID); err != nil {
		return nil, err
	}
	a, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, core.BadRequestError("text is required")
	}
	c := &Comment{AnswerID: a.ID, UserID: userID, Text: text}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}

	return s.detail(ctx, a)
}

func (s *Service) MarkAnswered(ctx context.Context, id string) (*Detail, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return nil, err
	}
	a, err := s.repo.SetStatus(ctx, id, StatusAnswered)
	if err != nil {
		return nil, err
	}

	core.AddSpanEvent(ctx, "answer.status_changed",
		attribute.String("answer.id", id),
		attribute.String("answer.status", StatusAnswered),
	)
	return s.detail(ctx, a)
}
