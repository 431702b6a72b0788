// AngelaMos | 2026
// handler.go

package tag

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/tags", func(r chi.Router) {
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (TagRequest, bool) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}
	return req, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToTagResponse(t, 0))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, n, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToTagResponse(t, n))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := core.PageFromRequest(r)
	params.Normalize()

	list, total, err := h.service.List(r.Context(), params, r.URL.Query().Get("name"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToTagResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToTagResponse(t, 0))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}
