// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/media"
)

// ModerationPageSize is the fixed page size of the admin user lists.
const ModerationPageSize = 10

type Service struct {
	repo     Repository
	uploader media.Uploader
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	uploader media.Uploader,
	logger *slog.Logger,
) *Service {
	if uploader == nil {
		uploader = media.NoopUploader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, uploader: uploader, logger: logger}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(nu.Email)),
		PasswordHash: nu.PasswordHash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Name:         nu.Name,
		ProfileImage: nu.ProfileImage,
		Provider:     nu.Provider,
	}
	if user.Provider == "" {
		user.Provider = ProviderLocal
	}
	if user.Name == "" {
		user.Name = strings.TrimSpace(nu.FirstName + " " + nu.LastName)
	}
	if nu.ProviderID != "" {
		user.ProviderID = &nu.ProviderID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("user")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	return user, nil
}

// UpdateProfile applies the non-nil fields. A non-empty profile image is
// uploaded first; an empty one clears the avatar.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.ProfileImage != nil {
		image := strings.TrimSpace(*req.ProfileImage)
		if image != "" {
			image, err = s.uploader.Upload(ctx, image, "avatar-"+userID)
			if err != nil {
				return nil, fmt.Errorf("upload avatar: %w", err)
			}
		}
		user.ProfileImage = image
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ToggleSuspended flips the suspension flag and returns the new state.
func (s *Service) ToggleSuspended(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("user")
	}

	user, err := s.repo.ToggleSuspended(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user suspension toggled",
		"user_id", id,
		"suspended", user.IsSuspended,
	)
	return user, nil
}

func (s *Service) ToggleDeleted(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("user")
	}

	user, err := s.repo.ToggleDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user soft-delete toggled",
		"user_id", id,
		"deleted", user.IsDeleted,
	)
	return user, nil
}

// Delete removes the account and everything that cascades from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.NotFoundError("user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("user")
		}
		return err
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func (s *Service) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int64, error) {
	return s.repo.List(ctx, params)
}

// ListModeration lists users by one moderation flag with the fixed admin
// page size.
func (s *Service) ListModeration(
	ctx context.Context,
	page int,
	suspended, deleted *bool,
) ([]User, int64, error) {
	return s.repo.List(ctx, ListUsersParams{
		PageParams: core.PageParams{Page: page, PageSize: ModerationPageSize},
		Suspended:  suspended,
		Deleted:    deleted,
	})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Emails returns every address of an account that is not soft-deleted.
func (s *Service) Emails(ctx context.Context) ([]string, error) {
	return s.repo.ListEmails(ctx)
}

// CanPost is the posting guard used by the content services.
func (s *Service) CanPost(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.CanPost() {
		return nil
	}
	if user.IsDeleted {
		return core.ForbiddenError("account has been deleted")
	}
	return core.ForbiddenError("account is suspended")
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		Provider:     u.Provider,
		PasswordHash: u.PasswordHash,
		IsSuspended:  u.IsSuspended,
		IsDeleted:    u.IsDeleted,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
