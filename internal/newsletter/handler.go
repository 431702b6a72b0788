// AngelaMos | 2026
// handler.go

package newsletter

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

// RegisterRoutes mounts /newsletter-subscribers, where only subscribing is
// public, and the admin only /newsletter record and broadcast routes.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly, subscribeLimit func(http.Handler) http.Handler,
) {
	r.Route("/newsletter-subscribers", func(r chi.Router) {
		r.With(subscribeLimit).Post("/", h.Subscribe)

		r.Group(func(r chi.Router) {
			r.Use(authenticator, adminOnly)

			r.Get("/", h.ListSubscribers)
			r.Get("/count", h.CountSubscribers)
			r.Get("/{id}", h.GetSubscriber)
			r.Patch("/{id}", h.UpdateSubscriber)
			r.Delete("/{id}", h.DeleteSubscriber)
		})
	})

	r.Route("/newsletter", func(r chi.Router) {
		r.Use(authenticator, adminOnly)

		r.Get("/", h.ListRecords)
		r.Post("/broadcast", h.Broadcast)
		r.Get("/{id}", h.GetRecord)
		r.Patch("/{id}", h.UpdateRecord)
		r.Delete("/{id}", h.DeleteRecord)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToSubscriberResponse(sub))
}

func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	params := core.PageFromRequest(r)
	params.Normalize()

	list, total, err := h.service.ListSubscribers(r.Context(), params, r.URL.Query().Get("email"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToSubscriberResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) CountSubscribers(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountSubscribers(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.GetSubscriber(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToSubscriberResponse(sub))
}

func (h *Handler) UpdateSubscriber(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.UpdateSubscriber(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToSubscriberResponse(sub))
}

func (h *Handler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSubscriber(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := RecordSearch{
		PageParams:  core.PageFromRequest(r),
		BroadcastID: q.Get("broadcast_id"),
		Status:      q.Get("status"),
		Email:       q.Get("email"),
	}
	if err := h.validator.Struct(params); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}
	params.Normalize()

	list, total, err := h.service.ListRecords(r.Context(), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToRecordResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToRecordResponse(rec))
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.service.UpdateRecord(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToRecordResponse(rec))
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Broadcast(r.Context(), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToBroadcastResponse(result))
}
