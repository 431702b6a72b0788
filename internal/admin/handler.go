// AngelaMos | 2026
// handler.go

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Handler struct {
	service   *Service
	stats     StatsSource
	validator *validator.Validate
}

func NewHandler(service *Service, stats StatsSource) *Handler {
	return &Handler{
		service:   service,
		stats:     stats,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /admin-user. Login is public, bootstrap needs a
// signed-in user, everything else needs the admin capability. mounts lets
// other packages add their moderation routes under the same guard.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly, credentialLimit func(http.Handler) http.Handler,
	mounts ...func(chi.Router),
) {
	r.Route("/admin-user", func(r chi.Router) {
		r.With(credentialLimit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/{id}/admin", h.MakeFirstAdmin)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/", h.List)
				r.Get("/admins", h.ListAdmins)
				r.Get("/admins/roles", h.ListByRole)
				r.Get("/search", h.Search)
				r.Get("/counts/all", h.CountAdmins)
				r.Get("/dashboard/counts", h.Dashboard)
				r.Get("/system/stats", h.SystemStats)
				r.Post("/role-create", h.CreateRole)
				r.Post("/assign-role", h.AssignRole)

				r.Post("/{id}/make-admin", h.MakeAdmin)
				r.Get("/{id}/details", h.GetByUser)
				r.Get("/{id}", h.Get)
				r.Patch("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)

				for _, mount := range mounts {
					mount(r)
				}
			})
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(
		r.Context(),
		req.Email,
		req.Password,
		r.UserAgent(),
		auth.ExtractIPAddress(r),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) MakeFirstAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.MakeFirstAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAdminUserResponse(a))
}

func (h *Handler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.MakeAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAdminUserResponse(a))
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.CreateRole(r.Context(), req.Role)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAdminUserResponse(&AdminUserWithUser{AdminUser: *a}))
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.AssignRole(r.Context(), req.UserID, req.Role)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToAdminUserResponse(&AdminUserWithUser{AdminUser: *a}))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, params ListParams) {
	if err := h.validator.Struct(params); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}
	params.Normalize()

	list, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToAdminUserResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListParams{PageParams: core.PageFromRequest(r)})
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	isAdmin := true
	h.list(w, r, ListParams{PageParams: core.PageFromRequest(r), IsAdmin: &isAdmin})
}

func (h *Handler) ListByRole(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		core.BadRequest(w, "role is required")
		return
	}
	h.list(w, r, ListParams{PageParams: core.PageFromRequest(r), Role: role})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListParams{
		PageParams: core.PageFromRequest(r),
		IsAdmin:    core.ParseBoolQuery(r, "is_admin"),
		Role:       r.URL.Query().Get("role"),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToAdminUserResponse(a))
}

func (h *Handler) GetByUser(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToAdminUserResponse(a))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToAdminUserResponse(&AdminUserWithUser{AdminUser: *a}))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) CountAdmins(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountAdmins(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Dashboard(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, counts)
}

func (h *Handler) SystemStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.stats.Collect(r.Context()))
}
