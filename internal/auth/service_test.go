// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*UserInfo
	count int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*UserInfo)}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(_ context.Context, nu NewUser) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, nu.Email) {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(nu.Email),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Name:         nu.Name,
		ProfileImage: nu.ProfileImage,
		Provider:     nu.Provider,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    time.Now(),
	}
	f.byID[u.ID] = u
	f.count++
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) hashOf(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].PasswordHash
}

type fakeTokens struct {
	mu     sync.Mutex
	byUser map[string]RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byUser: make(map[string]RefreshToken)}
}

func (f *fakeTokens) Upsert(_ context.Context, t *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.CreatedAt = time.Now()
	f.byUser[t.UserID] = *t
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byUser {
		if t.TokenHash == hash {
			cp := t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeTokens) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, userID)
	return nil
}

func (f *fakeTokens) DeleteExpired(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for user, t := range f.byUser {
		if t.IsExpired() {
			delete(f.byUser, user)
			n++
		}
	}
	return n, nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byUser)
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (c *captureMailer) Send(_ context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) last() (mail.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return mail.Message{}, false
	}
	return c.sent[len(c.sent)-1], true
}

type fixture struct {
	svc    *Service
	users  *fakeUsers
	tokens *fakeTokens
	mailer *captureMailer
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	if err := GenerateKeyPair(privPath, pubPath); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	jwtManager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privPath,
		PublicKeyPath:      pubPath,
		AccessTokenExpire:  10 * time.Hour,
		RefreshTokenExpire: 72 * time.Hour,
		Issuer:             "qa-test",
		Audience:           "qa-test",
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		users:  newFakeUsers(),
		tokens: newFakeTokens(),
		mailer: &captureMailer{},
		redis:  mr,
	}
	f.svc = NewService(
		f.tokens,
		jwtManager,
		f.users,
		rdb,
		f.mailer,
		"QA Forum",
		config.AuthConfig{
			ResetTokenExpire: time.Hour,
			ResetURL:         "https://forum.example/reset-password",
		},
		nil,
	)
	return f
}

func (f *fixture) signup(t *testing.T, email, password string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), SignupRequest{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	return resp
}

func appErrorCode(t *testing.T, err error) (int, string) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.StatusCode, appErr.Message
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Signup(context.Background(), SignupRequest{
		Email:     "ADA@example.com",
		Password:  "another-pass",
		FirstName: "Other",
		LastName:  "Person",
	}, "", "")

	status, msg := appErrorCode(t, err)
	if status != 400 || msg != "email already in use" {
		t.Fatalf("got %d %q", status, msg)
	}
	if f.users.count != 1 {
		t.Fatalf("users created = %d, want 1", f.users.count)
	}
}

func TestSignupSendsWelcomeAndHidesHash(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, "ada@example.com", "correct-horse")

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if resp.Tokens.ExpiresIn != int((10 * time.Hour).Seconds()) {
		t.Fatalf("expires_in = %d", resp.Tokens.ExpiresIn)
	}
	msg, ok := f.mailer.last()
	if !ok || !strings.HasPrefix(msg.Subject, "Signup successful") {
		t.Fatalf("welcome mail missing: %+v", msg)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada@example.com", "correct-horse")

	_, errUnknown := f.svc.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "correct-horse",
	}, "", "")
	_, errWrong := f.svc.Login(context.Background(), LoginRequest{
		Email: "ada@example.com", Password: "wrong-horse",
	}, "", "")

	s1, m1 := appErrorCode(t, errUnknown)
	s2, m2 := appErrorCode(t, errWrong)
	if s1 != 401 || s1 != s2 || m1 != m2 {
		t.Fatalf("unknown=(%d %q) wrong=(%d %q)", s1, m1, s2, m2)
	}
}

func TestChangePasswordWrongOldKeepsHash(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, "ada@example.com", "correct-horse")
	before := f.users.hashOf(resp.User.ID)

	err := f.svc.ChangePassword(context.Background(), resp.User.ID, "nope-nope", "brand-new-pass")
	status, _ := appErrorCode(t, err)
	if status != 401 {
		t.Fatalf("status = %d, want 401", status)
	}
	if f.users.hashOf(resp.User.ID) != before {
		t.Fatal("stored hash changed on failed change")
	}

	err = f.svc.ChangePassword(context.Background(), uuid.New().String(), "x", "brand-new-pass")
	if status, _ := appErrorCode(t, err); status != 404 {
		t.Fatalf("missing subject status = %d, want 404", status)
	}
}

func TestChangePasswordDropsRefreshToken(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, "ada@example.com", "correct-horse")

	if err := f.svc.ChangePassword(context.Background(), resp.User.ID, "correct-horse", "brand-new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	_, err := f.svc.Refresh(context.Background(), resp.Tokens.RefreshToken, "", "")
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("refresh after change: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), LoginRequest{
		Email: "ada@example.com", Password: "brand-new-pass",
	}, "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	f := newFixture(t)
	first := f.signup(t, "ada@example.com", "correct-horse")

	second, err := f.svc.Refresh(context.Background(), first.Tokens.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatal("refresh token was not replaced")
	}

	if _, err := f.svc.Refresh(context.Background(), first.Tokens.RefreshToken, "", ""); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("old token still accepted: %v", err)
	}

	if _, err := f.svc.Refresh(context.Background(), "garbage", "", ""); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("unknown token: %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	msg, ok := f.mailer.last()
	if !ok || msg.Subject != "Password Reset Request" {
		t.Fatalf("reset mail missing: %+v", msg)
	}

	link, err := url.Parse(strings.TrimPrefix(msg.Text, "Reset your password: "))
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	token := link.Query().Get("token")
	if len(token) != core.ResetTokenLength {
		t.Fatalf("token length = %d", len(token))
	}

	if ttl := f.redis.TTL(resetNamespace + ":" + core.HashToken(token)); ttl != time.Hour {
		t.Fatalf("reset ttl = %v", ttl)
	}

	if err := f.svc.ResetPassword(ctx, token, "reset-password-1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	err = f.svc.ResetPassword(ctx, token, "reset-password-2")
	if status, msg := appErrorCode(t, err); status != 401 || msg != "invalid or expired reset token" {
		t.Fatalf("second use: %d %q", status, msg)
	}

	if _, err := f.svc.Login(ctx, LoginRequest{
		Email: resp.User.Email, Password: "reset-password-1",
	}, "", ""); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}

func TestForgotPasswordUnknownEmailSendsNothing(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if _, ok := f.mailer.last(); ok {
		t.Fatal("mail sent for unknown address")
	}
}

func TestExpiredResetToken(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	msg, _ := f.mailer.last()
	link, _ := url.Parse(strings.TrimPrefix(msg.Text, "Reset your password: "))

	f.redis.FastForward(2 * time.Hour)

	err := f.svc.ResetPassword(ctx, link.Query().Get("token"), "reset-password-1")
	if status, _ := appErrorCode(t, err); status != 401 {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != "ada@example.com" {
		t.Fatalf("claims = %+v", claims)
	}

	if err := f.svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("token after logout: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", ""); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("refresh after logout: %v", err)
	}
}

func TestExternalIdentityCreatesOnceThenMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := &ExternalIdentity{
		Provider:  "google",
		Subject:   "g-1",
		Email:     "Grace@Example.com",
		FirstName: "Grace",
		Picture:   "https://img.example/g.png",
	}

	first, err := f.svc.LoginWithExternalIdentity(ctx, identity, "", "")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.svc.LoginWithExternalIdentity(ctx, identity, "", "")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if first.User.ID != second.User.ID || f.users.count != 1 {
		t.Fatalf("expected one account, got %d", f.users.count)
	}
	if first.User.ProfileImage != identity.Picture {
		t.Fatalf("picture = %q", first.User.ProfileImage)
	}

	_, err = f.svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "anything-at-all"}, "", "")
	if status, _ := appErrorCode(t, err); status != 401 {
		t.Fatal("external account must not accept password login")
	}
}

func TestPurgeExpiredTokensKeepsLiveOnes(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "live@example.com", "correct horse battery")

	_ = f.tokens.Upsert(context.Background(), &RefreshToken{
		UserID:    "gone",
		TokenHash: "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if f.tokens.count() != 2 {
		t.Fatalf("tokens = %d, want 2", f.tokens.count())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.svc.PurgeExpiredTokens(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.tokens.count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if f.tokens.count() != 1 {
		t.Fatalf("tokens after purge = %d, want 1", f.tokens.count())
	}
}
