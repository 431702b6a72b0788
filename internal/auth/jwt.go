// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
)

const (
	tokenTypeAccess = "access"
	keyIDLength     = 16
)

// JWTManager signs ES256 access tokens and publishes the matching public
// key as a JWKS. Refresh tokens are opaque and never pass through here
// except to be minted.
type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	keyID      string
	config     config.JWTConfig
}

// NewJWTManager loads the PEM key pair. With GenerateMissing set, a
// missing pair is created first, which is only meant for local setups.
func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if errors.Is(err, fs.ErrNotExist) && cfg.GenerateMissing {
		if genErr := GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); genErr != nil {
			return nil, genErr
		}
		privateKeyPEM, err = os.ReadFile(cfg.PrivateKeyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	keyID, err := thumbprintID(publicKey)
	if err != nil {
		return nil, err
	}

	for _, kv := range []struct {
		key   jwk.Key
		name  string
		value any
	}{
		{privateKey, jwk.AlgorithmKey, jwa.ES256()},
		{privateKey, jwk.KeyIDKey, keyID},
		{publicKey, jwk.AlgorithmKey, jwa.ES256()},
		{publicKey, jwk.KeyIDKey, keyID},
		{publicKey, jwk.KeyUsageKey, "sig"},
	} {
		if setErr := kv.key.Set(kv.name, kv.value); setErr != nil {
			return nil, fmt.Errorf("set %s: %w", kv.name, setErr)
		}
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		keyID:      keyID,
		config:     cfg,
	}, nil
}

// thumbprintID derives the kid from the RFC 7638 thumbprint, so it stays
// the same across restarts for the same key.
func thumbprintID(key jwk.Key) (string, error) {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("thumbprint public key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum)[:keyIDLength], nil
}

// GenerateKeyPair writes a fresh P-256 pair as PEM. The private key is
// readable by the owner only.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}
	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	for _, out := range []struct {
		key  jwk.Key
		path string
		mode os.FileMode
	}{
		{private, privateKeyPath, 0o600},
		{public, publicKeyPath, 0o644},
	} {
		pem, encErr := jwk.Pem(out.key)
		if encErr != nil {
			return fmt.Errorf("encode %s: %w", out.path, encErr)
		}
		if writeErr := os.WriteFile(out.path, pem, out.mode); writeErr != nil {
			return fmt.Errorf("write %s: %w", out.path, writeErr)
		}
	}

	return nil
}

type AccessTokenClaims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
}

// IssuedToken is a signed access token plus the identifiers needed to
// revoke it before it expires.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

func (m *JWTManager) CreateAccessToken(
	claims AccessTokenClaims,
) (*IssuedToken, error) {
	now := time.Now()
	jti := uuid.New().String()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("email", claims.Email).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{
		Token:     string(signed),
		ID:        jti,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyAccessToken checks signature, lifetime, issuer, audience and the
// token type. Revocation is checked by the auth service on top of this.
func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	if tokenType, _ := stringClaim(token, "type"); tokenType != tokenTypeAccess {
		return nil, invalidToken("wrong token type")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, invalidToken("missing subject")
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, invalidToken("missing jti")
	}

	email, ok := stringClaim(token, "email")
	if !ok {
		return nil, invalidToken("missing email claim")
	}

	expiresAt, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:    subject,
		Email:     email,
		TokenID:   jti,
		ExpiresAt: expiresAt,
	}, nil
}

func stringClaim(token jwt.Token, name string) (string, bool) {
	var v string
	if err := token.Get(name, &v); err != nil {
		return "", false
	}
	return v, true
}

func invalidToken(reason string) error {
	return fmt.Errorf("verify token: %s: %w", reason, core.ErrTokenInvalid)
}

func isTokenExpiredError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	body, err := json.Marshal(m.publicJWKS)
	return func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		//nolint:errcheck // best-effort response write
		_, _ = w.Write(body)
	}
}

func (m *JWTManager) GetKeyID() string {
	return m.keyID
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// CreateRefreshToken mints an opaque token. Only its hash is stored.
func (m *JWTManager) CreateRefreshToken() (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(m.config.RefreshTokenExpire),
	}, nil
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}
