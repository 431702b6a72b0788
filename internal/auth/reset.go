// AngelaMos | 2026
// reset.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
)

// ForgotPasswordMessage is returned whether or not the address is known.
const ForgotPasswordMessage = "if an account exists for that email, a password reset link has been sent"

// ForgotPassword stores the hash of a fresh reset token in Redis and mails
// the raw token to the account owner. Unknown or deleted accounts get the
// same answer and no mail.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := core.StartSpan(ctx, "auth.forgot_password")
	defer span.End()

	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.IsDeleted {
		return nil
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	ttl := s.authCfg.ResetTokenExpire
	if err := s.resets.Put(ctx, core.HashToken(token), user.ID, ttl); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("store reset token: %w", err)
	}

	msg, err := mail.PasswordReset(
		user.Email,
		displayName(user),
		resetLink(s.authCfg.ResetURL, token),
		ttl.String(),
	)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		s.logger.ErrorContext(ctx, "reset mail not sent",
			"user_id", user.ID,
			"error", err,
		)
	}

	return nil
}

// ResetPassword consumes the token with GETDEL so it works exactly once.
func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	userID, ok, err := s.resets.Take(ctx, core.HashToken(token))
	if err != nil {
		return err
	}
	if !ok {
		return core.UnauthorizedError("invalid or expired reset token")
	}

	return s.setPassword(ctx, userID, newPassword)
}

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
