// AngelaMos | 2026
// service.go

package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
)

var errAlreadySubscribed = core.BadRequestError("email has already subscribed")

// EmailSource lists the addresses of active accounts.
type EmailSource interface {
	Emails(ctx context.Context) ([]string, error)
}

type Service struct {
	repo    Repository
	users   EmailSource
	mailer  mail.Mailer
	cfg     config.NewsletterConfig
	app     string
	sender  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService builds the newsletter service. sender is recorded on broadcasts
// that do not name one.
func NewService(
	repo Repository,
	users EmailSource,
	mailer mail.Mailer,
	cfg config.NewsletterConfig,
	app, sender string,
	logger *slog.Logger,
) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Concurrency

	return &Service{
		repo:    repo,
		users:   users,
		mailer:  mailer,
		cfg:     cfg,
		app:     app,
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error) {
	sub := &Subscriber{ID: uuid.New().String(), Email: normalizeEmail(req.Email)}

	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errAlreadySubscribed
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "newsletter subscriber added", "subscriber_id", sub.ID)
	return sub, nil
}

func (s *Service) GetSubscriber(ctx context.Context, id string) (*Subscriber, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("subscriber")
	}
	sub, err := s.repo.GetSubscriber(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("subscriber")
	}
	return sub, err
}

func (s *Service) UpdateSubscriber(
	ctx context.Context,
	id string,
	req SubscribeRequest,
) (*Subscriber, error) {
	sub, err := s.GetSubscriber(ctx, id)
	if err != nil {
		return nil, err
	}

	sub.Email = normalizeEmail(req.Email)
	if err := s.repo.UpdateSubscriber(ctx, sub); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, errAlreadySubscribed
		case errors.Is(err, core.ErrNotFound):
			return nil, core.NotFoundError("subscriber")
		}
		return nil, err
	}
	return sub, nil
}

func (s *Service) DeleteSubscriber(ctx context.Context, id string) error {
	if _, err := s.GetSubscriber(ctx, id); err != nil {
		return err
	}
	err := s.repo.DeleteSubscriber(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("subscriber")
	}
	return err
}

func (s *Service) ListSubscribers(
	ctx context.Context,
	params core.PageParams,
	search string,
) ([]Subscriber, int64, error) {
	return s.repo.ListSubscribers(ctx, params, search)
}

func (s *Service) CountSubscribers(ctx context.Context) (int64, error) {
	return s.repo.CountSubscribers(ctx)
}

func (s *Service) GetRecord(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("newsletter")
	}
	rec, err := s.repo.GetRecord(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("newsletter")
	}
	return rec, err
}

func (s *Service) UpdateRecord(
	ctx context.Context,
	id string,
	req UpdateRecordRequest,
) (*Record, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		rec.Subject = *req.Subject
	}
	if req.Content != nil {
		rec.Content = *req.Content
	}
	if req.Status != nil {
		rec.Status = *req.Status
		if rec.Status != StatusFailed {
			rec.Error = ""
		}
	}

	err = s.repo.UpdateRecord(ctx, rec)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("newsletter")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.GetRecord(ctx, id); err != nil {
		return err
	}
	err := s.repo.DeleteRecord(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("newsletter")
	}
	return err
}

func (s *Service) ListRecords(
	ctx context.Context,
	params RecordSearch,
) ([]Record, int64, error) {
	return s.repo.ListRecords(ctx, params)
}
