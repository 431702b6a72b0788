// AngelaMos | 2026
// service.go

package category

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

var errNameInUse = core.BadRequestError("name already in use")

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

func (s *Service) Create(
	ctx context.Context,
	req CreateCategoryRequest,
) (*Category, error) {
	c := &Category{
		ID:          uuid.New().String(),
		Name:        NormalizeName(req.Name),
		Description: req.Description,
	}
	if c.Name == "" {
		return nil, core.BadRequestError("name is required")
	}

	taken, err := s.repo.NameTaken(ctx, c.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errNameInUse
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, errNameInUse
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("category")
	}

	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("category")
	}
	return c, err
}

// GetWithQuestions returns the category and the ids of its questions.
func (s *Service) GetWithQuestions(
	ctx context.Context,
	id string,
) (*Category, []string, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ids, err := s.repo.QuestionIDs(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return c, ids, nil
}

// Exists lets the question service validate category references.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateCategoryRequest,
) (*Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := NormalizeName(*req.Name)
		if name == "" {
			return nil, core.BadRequestError("name is required")
		}
		taken, err := s.repo.NameTaken(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errNameInUse
		}
		c.Name = name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}

	if err := s.repo.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, errNameInUse
		case errors.Is(err, core.ErrNotFound):
			return nil, core.NotFoundError("category")
		}
		return nil, err
	}

	return c, nil
}

// Delete refuses while questions still reference the category.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	ids, err := s.repo.QuestionIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return core.BadRequestError("category still has questions")
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("category")
	}
	return err
}

func (s *Service) List(
	ctx context.Context,
	params core.PageParams,
) ([]Category, int64, error) {
	return s.repo.List(ctx, params)
}
