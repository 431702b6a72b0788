// AngelaMos | 2026
// service.go

package question

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/media"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

const slugAttempts = 3

var (
	errDuplicateQuestion = core.BadRequestError("you have already asked this question")
	errStaleVersion      = core.ConflictError("question was modified, reload and try again")
)

// Poster decides whether a user may publish content.
type Poster interface {
	CanPost(ctx context.Context, userID string) error
}

type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo       Repository
	votes      *vote.Engine
	posters    Poster
	categories CategoryChecker
	uploader   media.Uploader
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	votes *vote.Engine,
	posters Poster,
	categories CategoryChecker,
	uploader media.Uploader,
	logger *slog.Logger,
) *Service {
	if uploader == nil {
		uploader = media.NoopUploader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		votes:      votes,
		posters:    posters,
		categories: categories,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateQuestionRequest,
) (*Detail, error) {
	if err := s.posters.CanPost(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	dup, err := s.repo.ExistsForUser(ctx, userID, title)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, errDuplicateQuestion
	}

	id := uuid.New().String()
	urls, err := media.UploadAll(ctx, s.uploader, req.Images, "question-"+id)
	if err != nil {
		return nil, fmt.Errorf("upload question images: %w", err)
	}

	q := &Question{
		ID:              id,
		UserID:          userID,
		CategoryID:      req.CategoryID,
		Title:           title,
		Description:     req.Description,
		Status:          StatusEnable,
		AnswerStatus:    AnswerStatusUnanswered,
		Tags:            core.NormalizeTags(req.Tags),
		ImageURLs:       urls,
		SendAnswerEmail: req.SendAnswerEmail,
		Version:         1,
	}

	// a concurrent insert can take the slug between lookup and insert
	for attempt := 0; attempt < slugAttempts; attempt++ {
		sl, err := s.nextSlug(ctx, title)
		if err != nil {
			return nil, err
		}
		q.Slug = &sl

		err = s.repo.Create(ctx, q)
		if err == nil {
			s.logger.InfoContext(ctx, "question created",
				"question_id", q.ID,
				"user_id", userID,
				"slug", sl,
			)
			return &Detail{Question: q, Tally: vote.NewTally()}, nil
		}
		if !errors.Is(err, core.ErrDuplicateKey) {
			return nil, err
		}

		dup, derr := s.repo.ExistsForUser(ctx, userID, title)
		if derr != nil {
			return nil, derr
		}
		if dup {
			return nil, errDuplicateQuestion
		}
	}

	return nil, core.ConflictError("could not allocate a unique slug, try again")
}

func (s *Service) nextSlug(ctx context.Context, title string) (string, error) {
	base := BaseSlug(title)
	taken, err := s.repo.SlugsLike(ctx, base)
	if err != nil {
		return "", err
	}
	return UniqueSlug(base, taken), nil
}

func (s *Service) requireCategory(ctx context.Context, id string) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFoundError("category")
	}
	return nil
}

// Find loads the bare question.
func (s *Service) Find(ctx context.Context, id string) (*Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("question")
	}
	q, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("question")
	}
	return q, err
}

// OwnerOf satisfies middleware.OwnerLookup.
func (s *Service) OwnerOf(ctx context.Context, id string) (string, error) {
	q, err := s.Find(ctx, id)
	if err != nil {
		return "", err
	}
	return q.UserID, nil
}

func (s *Service) detail(ctx context.Context, q *Question) (*Detail, error) {
	tally, err := s.votes.Tally(ctx, vote.KindQuestion, q.ID)
	if err != nil {
		return nil, err
	}
	views, err := s.votes.Views(ctx, vote.KindQuestion, q.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Question: q, Tally: tally, Views: views}, nil
}

func (s *Service) details(ctx context.Context, list []Question) ([]Detail, error) {
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	tallies, err := s.votes.Tallies(ctx, vote.KindQuestion, ids)
	if err != nil {
		return nil, err
	}
	views, err := s.votes.ViewsFor(ctx, vote.KindQuestion, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Detail, len(list))
	for i := range list {
		out[i] = Detail{
			Question: &list[i],
			Tally:    tallies[list[i].ID],
			Views:    views[list[i].ID],
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	q, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	q, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("question")
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
}

func (s *Service) GetByTitle(ctx context.Context, title string) (*Detail, error) {
	q, err := s.repo.GetByTitle(ctx, strings.TrimSpace(title))
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("question")
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
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

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.repo.Tags(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (s *Service) TagCounts(ctx context.Context) ([]TagCount, error) {
	counts, err := s.repo.TagCounts(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []TagCount{}
	}
	return counts, nil
}

func (s *Service) CountsForUser(ctx context.Context, userID string) (UserCounts, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return UserCounts{}, core.NotFoundError("user")
	}
	return s.repo.CountsForUser(ctx, userID)
}

func (s *Service) requireOwner(q *Question, userID string) error {
	if q.UserID != userID {
		return core.ForbiddenError("you can only modify your own questions")
	}
	return nil
}

// Update is the owner edit guarded by the optimistic version.
func (s *Service) Update(
	ctx context.Context,
	userID, id string,
	req UpdateQuestionRequest,
) (*Detail, error) {
	q, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(q, userID); err != nil {
		return nil, err
	}
	if req.Version != q.Version {
		return nil, errStaleVersion
	}

	if err := s.apply(ctx, q, req.QuestionFields); err != nil {
		return nil, err
	}
	if err := s.save(ctx, q, req.Version); err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
}

// AdminUpdate edits any question against its current version.
func (s *Service) AdminUpdate(
	ctx context.Context,
	id string,
	fields QuestionFields,
) (*Detail, error) {
	q, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, q, fields); err != nil {
		return nil, err
	}
	if err := s.save(ctx, q, q.Version); err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
}

func (s *Service) apply(ctx context.Context, q *Question, f QuestionFields) error {
	if f.Title != nil {
		q.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		q.Description = *f.Description
	}
	if f.CategoryID != nil && *f.CategoryID != q.CategoryID {
		if err := s.requireCategory(ctx, *f.CategoryID); err != nil {
			return err
		}
		q.CategoryID = *f.CategoryID
	}
	if f.Tags != nil {
		q.Tags = core.NormalizeTags(*f.Tags)
	}
	if f.Images != nil {
		urls, err := media.UploadAll(ctx, s.uploader, *f.Images, "question-"+q.ID)
		if err != nil {
			return fmt.Errorf("upload question images: %w", err)
		}
		q.ImageURLs = urls
	}
	if f.SendAnswerEmail != nil {
		q.SendAnswerEmail = *f.SendAnswerEmail
	}
	return nil
}

func (s *Service) save(ctx context.Context, q *Question, expectedVersion int) error {
	err := s.repo.Update(ctx, q, expectedVersion)
	switch {
	case errors.Is(err, core.ErrConflict):
		return errStaleVersion
	case errors.Is(err, core.ErrDuplicateKey):
		return errDuplicateQuestion
	}
	return err
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	q, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(q, userID); err != nil {
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
	s.logger.InfoContext(ctx, "question removed by admin", "question_id", id)
	return nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("question")
	}
	return err
}

// DeleteImage drops one image url from the owner's question.
func (s *Service) DeleteImage(
	ctx context.Context,
	userID, id, url string,
) (*Detail, error) {
	q, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(q, userID); err != nil {
		return nil, err
	}
	if !q.ImageURLs.Contains(url) {
		return nil, core.NotFoundError("image")
	}

	q.ImageURLs = q.ImageURLs.Without(url)
	if err := s.save(ctx, q, q.Version); err != nil {
		return nil, err
	}
	return s.detail(ctx, q)
}

func (s *Service) Vote(
	ctx context.Context,
	userID, id string,
	op vote.Op,
) (vote.Tally, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return vote.Tally{}, err
	}
	return s.votes.Do(ctx, vote.KindQuestion, id, userID, op)
}

// Stats records the caller as a viewer and returns the engagement counts.
func (s *Service) Stats(ctx context.Context, viewerID, id string) (StatsResponse, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return StatsResponse{}, err
	}

	views, err := s.votes.View(ctx, vote.KindQuestion, id, viewerID)
	if err != nil {
		return StatsResponse{}, err
	}
	return s.stats(ctx, id, views)
}

// TotalStats reads the counts without recording a view.
func (s *Service) TotalStats(ctx context.Context, id string) (StatsResponse, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return StatsResponse{}, err
	}

	views, err := s.votes.Views(ctx, vote.KindQuestion, id)
	if err != nil {
		return StatsResponse{}, err
	}
	return s.stats(ctx, id, views)
}

func (s *Service) stats(ctx context.Context, id string, views int64) (StatsResponse, error) {
	tally, err := s.votes.Tally(ctx, vote.KindQuestion, id)
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{
		ID:        id,
		Views:     views,
		Upvotes:   len(tally.Upvotes),
		Downvotes: len(tally.Downvotes),
	}, nil
}

// SetStatus moves a question between Enable and Disable.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Question, error) {
	if status != StatusEnable && status != StatusDisable {
		return nil, core.BadRequestError("status must be Enable or Disable")
	}
	if _, err := s.Find(ctx, id); err != nil {
		return nil, err
	}

	q, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	core.AddSpanEvent(ctx, "question.status_changed",
		attribute.String("question.id", id),
		attribute.String("question.status", status),
	)
	s.logger.InfoContext(ctx, "question status changed",
		"question_id", id,
		"status", status,
	)
	return q, nil
}

func (s *Service) MarkAnswered(ctx context.Context, id string) (*Question, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.SetAnswerStatus(ctx, id, AnswerStatusAnswered)
}

// BackfillSlugs assigns a slug to every question stored without one.
func (s *Service) BackfillSlugs(ctx context.Context) (int, error) {
	missing, err := s.repo.MissingSlugs(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range missing {
		sl, err := s.nextSlug(ctx, missing[i].Title)
		if err != nil {
			return updated, err
		}
		if err := s.repo.SetSlug(ctx, missing[i].ID, sl); err != nil {
			return updated, fmt.Errorf("backfill slug for %s: %w", missing[i].ID, err)
		}
		updated++
	}

	s.logger.InfoContext(ctx, "question slugs backfilled", "updated", updated)
	return updated, nil
}
