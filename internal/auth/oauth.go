// AngelaMos | 2026
// oauth.go

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

const (
	GoogleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
	FacebookGraphURL  = "https://graph.facebook.com/me"
	jwksCacheDuration = time.Hour
)

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// ExternalIdentity is what a third-party provider vouches for.
type ExternalIdentity struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Name      string
	Picture   string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*ExternalIdentity, error)
}

// GoogleVerifier checks Google ID tokens against Google's published keys.
type GoogleVerifier struct {
	jwksURL   string
	clientIDs []string
	client    *http.Client

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

func NewGoogleVerifier(jwksURL string, clientIDs []string) *GoogleVerifier {
	if jwksURL == "" {
		jwksURL = GoogleJWKSURL
	}
	return &GoogleVerifier{
		jwksURL:   jwksURL,
		clientIDs: clientIDs,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.keys != nil && time.Since(g.fetchedAt) < jwksCacheDuration {
		return g.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read jwks: %w", err)
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}

	g.keys = set
	g.fetchedAt = time.Now()
	return set, nil
}

func (g *GoogleVerifier) Verify(
	ctx context.Context,
	idToken string,
) (*ExternalIdentity, error) {
	if len(g.clientIDs) == 0 {
		return nil, core.BadRequestError("google login is not configured")
	}

	set, err := g.keySet(ctx)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(
		[]byte(idToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, core.UnauthorizedError("invalid google token")
	}

	issuer, _ := token.Issuer()
	if !slices.Contains(googleIssuers, issuer) {
		return nil, core.UnauthorizedError("invalid google token issuer")
	}

	audience, _ := token.Audience()
	if !slices.ContainsFunc(audience, func(a string) bool {
		return slices.Contains(g.clientIDs, a)
	}) {
		return nil, core.UnauthorizedError("google token was issued for another client")
	}

	subject, _ := token.Subject()
	identity := &ExternalIdentity{Provider: "google", Subject: subject}

	// profile claims are optional apart from email
	_ = token.Get("email", &identity.Email)
	_ = token.Get("given_name", &identity.FirstName)
	_ = token.Get("family_name", &identity.LastName)
	_ = token.Get("name", &identity.Name)
	_ = token.Get("picture", &identity.Picture)

	if identity.Email == "" {
		return nil, core.UnauthorizedError("google token carries no email")
	}

	return identity, nil
}

// FacebookVerifier resolves a user access token through the Graph API.
type FacebookVerifier struct {
	graphURL  string
	appSecret string
	client    *http.Client
}

func NewFacebookVerifier(graphURL, appSecret string) *FacebookVerifier {
	if graphURL == "" {
		graphURL = FacebookGraphURL
	}
	return &FacebookVerifier{
		graphURL:  graphURL,
		appSecret: appSecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type facebookProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (f *FacebookVerifier) Verify(
	ctx context.Context,
	accessToken string,
) (*ExternalIdentity, error) {
	q := url.Values{}
	q.Set("fields", "id,email,first_name,last_name,name,picture")
	q.Set("access_token", accessToken)
	if f.appSecret != "" {
		q.Set("appsecret_proof", appSecretProof(accessToken, f.appSecret))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		f.graphURL+"?"+q.Encode(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call graph api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnauthorized {
		return nil, core.UnauthorizedError("invalid facebook token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call graph api: status %d", resp.StatusCode)
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode graph profile: %w", err)
	}

	if profile.ID == "" || profile.Email == "" {
		return nil, core.UnauthorizedError("facebook profile carries no email")
	}

	return &ExternalIdentity{
		Provider:  "facebook",
		Subject:   profile.ID,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Name:      profile.Name,
		Picture:   profile.Picture.Data.URL,
	}, nil
}

func appSecretProof(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// LoginWithExternalIdentity signs in the account matching the identity's
// email, creating it with an unusable password when none exists.
func (s *Service) LoginWithExternalIdentity(
	ctx context.Context,
	identity *ExternalIdentity,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.userProvider.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsDeleted {
			return nil, core.UnauthorizedError("account has been deleted")
		}
	case errors.Is(err, core.ErrNotFound):
		hash, err := core.UnusablePasswordHash()
		if err != nil {
			return nil, fmt.Errorf("unusable password: %w", err)
		}
		user, err = s.userProvider.Create(ctx, NewUser{
			Email:        email,
			PasswordHash: hash,
			FirstName:    identity.FirstName,
			LastName:     identity.LastName,
			Name:         identity.Name,
			ProfileImage: identity.Picture,
			Provider:     identity.Provider,
			ProviderID:   identity.Subject,
		})
		if err != nil {
			return nil, fmt.Errorf("create external user: %w", err)
		}
		s.sendWelcome(ctx, user)
	default:
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress)
}
