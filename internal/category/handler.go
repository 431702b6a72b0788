// AngelaMos | 2026
// handler.go

package category

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
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

// RegisterRoutes mounts /category-questions. Reads are public, writes need
// the admin capability.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/category-questions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator, adminOnly)

			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToCategoryResponse(c, nil))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ids, err := h.service.GetWithQuestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToCategoryResponse(c, ids))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := core.PageFromRequest(r)
	params.Normalize()

	list, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToCategoryResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToCategoryResponse(c, nil))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}
