// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListUsers)
		r.Get("/count", h.Count)
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Get("/{id}", h.GetUser)
	})
}

// RegisterAdminRoutes expects r to already enforce authentication and the
// admin capability.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Patch("/{id}/suspend", h.ToggleSuspended)
	r.Patch("/{id}/soft-delete", h.ToggleDeleted)

	r.Get("/users/suspended", h.listFlag(ptr(true), nil))
	r.Get("/users/unsuspended", h.listFlag(ptr(false), nil))
	r.Get("/users/soft-deleted", h.listFlag(nil, ptr(true)))
	r.Get("/users/not-deleted", h.listFlag(nil, ptr(false)))
	r.Delete("/users/{id}", h.DeleteUser)
}

func ptr(b bool) *bool {
	return &b
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateProfile(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// ListUsers searches by the enumerated name and email filters.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		PageParams: core.PageFromRequest(r),
		FirstName:  q.Get("first_name"),
		LastName:   q.Get("last_name"),
		Name:       q.Get("name"),
		Email:      q.Get("email"),
		Deleted:    ptr(false),
	}

	if err := h.validator.Struct(params); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}
	params.Normalize()

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) ToggleSuspended(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.ToggleSuspended(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) ToggleDeleted(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.ToggleDeleted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) listFlag(suspended, deleted *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := core.ParseIntQuery(r, "page", 1)
		if page < 1 {
			page = 1
		}

		users, total, err := h.service.ListModeration(r.Context(), page, suspended, deleted)
		if err != nil {
			core.HandleError(w, err)
			return
		}

		core.Paginated(w, ToUserResponseList(users), page, ModerationPageSize, total)
	}
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}
