// AngelaMos | 2026
// service.go

package tag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

var errNameInUse = core.BadRequestError("tag already exists")

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, req TagRequest) (*Tag, error) {
	t := &Tag{ID: uuid.New().String(), Name: NormalizeName(req.Name)}
	if t.Name == "" {
		return nil, core.BadRequestError("name is required")
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errNameInUse
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "tag created", "tag_id", t.ID, "name", t.Name)
	return t, nil
}

func (s *Service) find(ctx context.Context, id string) (*Tag, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("tag")
	}
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("tag")
	}
	return t, err
}

// Get returns the tag with the number of questions using it.
func (s *Service) Get(ctx context.Context, id string) (*Tag, int64, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	n, err := s.repo.Usage(ctx, t.Name)
	if err != nil {
		return nil, 0, err
	}
	return t, n, nil
}

func (s *Service) Update(ctx context.Context, id string, req TagRequest) (*Tag, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = NormalizeName(req.Name)
	if t.Name == "" {
		return nil, core.BadRequestError("name is required")
	}

	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, errNameInUse
		case errors.Is(err, core.ErrNotFound):
			return nil, core.NotFoundError("tag")
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("tag")
	}
	return err
}

func (s *Service) List(
	ctx context.Context,
	params core.PageParams,
	search string,
) ([]Tag, int64, error) {
	return s.repo.List(ctx, params, search)
}
