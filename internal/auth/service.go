// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
)

const (
	blacklistNamespace = "blacklist"
	resetNamespace     = "reset"
)

var errInvalidCredentials = core.UnauthorizedError("invalid email or password")

type UserInfo struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Name         string
	ProfileImage string
	Provider     string
	PasswordHash string
	IsSuspended  bool
	IsDeleted    bool
	CreatedAt    time.Time
}

// NewUser carries everything needed to create an account, local or
// external.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Name         string
	ProfileImage string
	Provider     string
	ProviderID   string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, u NewUser) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	revoked      *core.KeyStore
	resets       *core.KeyStore
	mailer       mail.Mailer
	appName      string
	authCfg      config.AuthConfig
	logger       *slog.Logger
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	mailer mail.Mailer,
	appName string,
	authCfg config.AuthConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		revoked:      core.NewKeyStore(redisClient, blacklistNamespace),
		resets:       core.NewKeyStore(redisClient, resetNamespace),
		mailer:       mailer,
		appName:      appName,
		authCfg:      authCfg,
		logger:       logger,
	}
}

func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.signup")
	defer span.End()

	_, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, core.DuplicateError("email")
	}
	if !errors.Is(err, core.ErrNotFound) {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, core.ErrPasswordTooLong) {
			return nil, core.BadRequestError("password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, NewUser{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Name:         req.Name,
		Provider:     "local",
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendWelcome(ctx, user)

	return s.createAuthResponse(ctx, user, userAgent, ipAddress)
}

func (s *Service) sendWelcome(ctx context.Context, user *UserInfo) {
	msg, err := mail.Welcome(user.Email, displayName(user), s.appName)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "welcome mail not sent",
			"user_id", user.ID,
			"error", err,
		)
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress)
}

// Authenticate checks credentials without issuing tokens.
func (s *Service) Authenticate(
	ctx context.Context,
	email, password string,
) (*UserInfo, error) {
	return s.authenticate(ctx, email, password)
}

// IssueTokens mints a fresh pair for an already authenticated user.
func (s *Service) IssueTokens(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	return s.createAuthResponse(ctx, user, userAgent, ipAddress)
}

func (s *Service) authenticate(
	ctx context.Context,
	email, password string,
) (*UserInfo, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid || user.IsDeleted {
		return nil, errInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return user, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsExpired() {
		return nil, core.TokenExpiredError()
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.IsDeleted {
		return nil, core.TokenInvalidError()
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress)
}

// Logout drops the stored refresh token and blacklists the presented
// access token until it would have expired anyway.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if err := s.repo.DeleteByUserID(ctx, claims.UserID); err != nil {
		return err
	}

	return s.RevokeAccessToken(ctx, claims.TokenID, claims.ExpiresAt)
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	return s.revoked.Put(ctx, jti, "1", time.Until(expiresAt))
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	return s.revoked.Has(ctx, jti)
}

// VerifyAccessToken is the verifier handed to the auth middleware. It adds
// the revocation check on top of the signature check.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.IsAccessTokenBlacklisted(ctx, claims.TokenID)
	if err != nil {
		s.logger.WarnContext(ctx, "blacklist lookup failed", "error", err)
		return claims, nil
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, oldPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("user")
		}
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return core.UnauthorizedError("old password is incorrect")
	}

	return s.setPassword(ctx, userID, newPassword)
}

func (s *Service) setPassword(
	ctx context.Context,
	userID, newPassword string,
) error {
	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, core.ErrPasswordTooLong) {
			return core.BadRequestError("password must be at most 72 bytes")
		}
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("user")
		}
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("drop refresh token: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	err = s.repo.Upsert(ctx, &RefreshToken{
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken.Token,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    accessToken.ExpiresAt,
		},
	}, nil
}

// PurgeExpiredTokens deletes refresh tokens past their expiry every
// interval until ctx is done. Stored tokens are otherwise only replaced on
// the next login, so accounts that never return would keep theirs.
func (s *Service) PurgeExpiredTokens(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpired(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.InfoContext(ctx, "expired refresh tokens purged", "count", n)
			}
		}
	}
}

func displayName(u *UserInfo) string {
	if u.Name != "" {
		return u.Name
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
