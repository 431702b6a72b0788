// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	google    IdentityVerifier
	facebook  IdentityVerifier
	validator *validator.Validate
}

func NewHandler(service *Service, google, facebook IdentityVerifier) *Handler {
	return &Handler{
		service:   service,
		google:    google,
		facebook:  facebook,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /auth. credentialLimit throttles the endpoints that
// accept passwords or reset tokens.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, credentialLimit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(credentialLimit)
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Patch("/reset-password", h.ResetPassword)
			r.Post("/google-login", h.GoogleLogin)
			r.Post("/facebook", h.FacebookLogin)
		})
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Patch("/change-password", h.ChangePassword)
		})
	})
}

func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := v.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Signup(
		r.Context(),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Login(
		r.Context(),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.OldPassword,
		req.NewPassword,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "password changed"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: ForgotPasswordMessage})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "password has been reset"})
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	h.externalLogin(w, r, h.google, req.Token)
}

func (h *Handler) FacebookLogin(w http.ResponseWriter, r *http.Request) {
	var req FacebookLoginRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	h.externalLogin(w, r, h.facebook, req.AccessToken)
}

func (h *Handler) externalLogin(
	w http.ResponseWriter,
	r *http.Request,
	verifier IdentityVerifier,
	credential string,
) {
	if verifier == nil {
		core.BadRequest(w, "provider is not configured")
		return
	}

	identity, err := verifier.Verify(r.Context(), credential)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	resp, err := h.service.LoginWithExternalIdentity(
		r.Context(),
		identity,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, user)
}

// ExtractIPAddress prefers the last X-Forwarded-For hop, which is the one
// appended by our own proxy.
func ExtractIPAddress(r *http.Request) string {
	return extractIPAddress(r)
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
