// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// Credentials is the slice of the auth service that admin login needs.
type Credentials interface {
	Authenticate(ctx context.Context, email, password string) (*auth.UserInfo, error)
	IssueTokens(
		ctx context.Context,
		user *auth.UserInfo,
		userAgent, ipAddress string,
	) (*auth.AuthResponse, error)
}

// UserLookup confirms a user exists before a grant references it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

// Counter returns the size of one collection for the dashboard.
type Counter func(ctx context.Context) (int64, error)

type Service struct {
	repo     Repository
	users    UserLookup
	creds    Credentials
	counters map[string]Counter
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	users UserLookup,
	creds Credentials,
	counters map[string]Counter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		users:    users,
		creds:    creds,
		counters: counters,
		logger:   logger,
	}
}

// IsAdmin satisfies middleware.AdminChecker.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	return s.repo.IsAdmin(ctx, userID)
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return core.NotFoundError("user")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("user")
		}
		return err
	}
	return nil
}

func (s *Service) rejectExistingGrant(ctx context.Context, userID string) error {
	_, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return core.BadRequestError("this user is already an admin")
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

// MakeFirstAdmin grants admin to userID only while no admin exists.
func (s *Service) MakeFirstAdmin(
	ctx context.Context,
	userID string,
) (*AdminUserWithUser, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.rejectExistingGrant(ctx, userID); err != nil {
		return nil, err
	}

	grant := &AdminUser{ID: uuid.New().String(), UserID: &userID, IsAdmin: true}
	if err := s.repo.Bootstrap(ctx, grant); err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			return nil, core.ForbiddenError("an admin already exists")
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, core.BadRequestError("this user is already an admin")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "first admin bootstrapped", "user_id", userID)
	return s.repo.GetByID(ctx, grant.ID)
}

func (s *Service) MakeAdmin(
	ctx context.Context,
	userID string,
) (*AdminUserWithUser, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.rejectExistingGrant(ctx, userID); err != nil {
		return nil, err
	}

	grant := &AdminUser{ID: uuid.New().String(), UserID: &userID, IsAdmin: true}
	if err := s.repo.Create(ctx, grant); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.BadRequestError("this user is already an admin")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "admin granted", "user_id", userID)
	return s.repo.GetByID(ctx, grant.ID)
}

func (s *Service) CreateRole(ctx context.Context, role string) (*AdminUser, error) {
	role = strings.TrimSpace(role)

	exists, err := s.repo.RoleExists(ctx, role)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.BadRequestError("role name already in use")
	}

	def := &AdminUser{ID: uuid.New().String(), Role: &role}
	if err := s.repo.Create(ctx, def); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.BadRequestError("role name already in use")
		}
		return nil, err
	}

	return def, nil
}

// AssignRole sets the role of a user's grant, creating a non-admin grant
// when the user has none. Roles are free text and need no prior CreateRole.
func (s *Service) AssignRole(
	ctx context.Context,
	userID, role string,
) (*AdminUser, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	role = strings.TrimSpace(role)
	return s.repo.AssignRole(ctx, uuid.New().String(), userID, role)
}

// Login authenticates like a normal login and additionally requires an
// admin grant.
func (s *Service) Login(
	ctx context.Context,
	email, password, userAgent, ipAddress string,
) (*AdminLoginResponse, error) {
	user, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	grant, err := s.repo.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if grant == nil || !grant.IsAdmin {
		return nil, core.ForbiddenError("admin access required")
	}

	tokens, err := s.creds.IssueTokens(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &AdminLoginResponse{
		AuthResponse: *tokens,
		IsAdmin:      grant.IsAdmin,
		Role:         deref(grant.Role),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*AdminUserWithUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("admin user")
	}
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("admin user")
	}
	return a, err
}

func (s *Service) GetByUser(
	ctx context.Context,
	userID string,
) (*AdminUserWithUser, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, core.NotFoundError("admin user")
	}
	a, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("admin user")
	}
	return a, err
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateAdminRequest,
) (*AdminUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("admin user")
	}
	a, err := s.repo.Update(ctx, id, req)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, core.NotFoundError("admin user")
	case errors.Is(err, core.ErrDuplicateKey):
		return nil, core.BadRequestError("role name already in use")
	}
	return a, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.NotFoundError("admin user")
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("admin user")
	}
	return err
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]AdminUserWithUser, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	return s.repo.CountAdmins(ctx)
}

// Dashboard runs every registered counter concurrently.
func (s *Service) Dashboard(ctx context.Context) (map[string]int64, error) {
	var mu sync.Mutex
	counts := make(map[string]int64, len(s.counters)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountAdmins(gctx)
		if err != nil {
			return err
		}
		mu.Lock()
		counts["admins"] = n
		mu.Unlock()
		return nil
	})
	for name, counter := range s.counters {
		g.Go(func() error {
			n, err := counter(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			mu.Lock()
			counts[name] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
