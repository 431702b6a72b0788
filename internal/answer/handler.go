// AngelaMos | 2026
// handler.go

package answer

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
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

// RegisterRoutes mounts /answers. The status change is open to admins and
// to the owner of the answered question.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, voteLimit func(http.Handler) http.Handler,
	admins middleware.AdminChecker,
) {
	adminOrAsker := middleware.Authorize(
		middleware.Admin(admins),
		middleware.Owner(h.service.QuestionOwnerOf, "id"),
	)

	r.Route("/answers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/count", h.Count)
		r.Get("/question/{id}", h.ByQuestion)
		r.Get("/user/{id}", h.ByUser)
		r.Get("/user/{id}/counts", h.UserCount)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Patch("/{id}/acknowledge", h.Acknowledge)
			r.Post("/{id}/comment", h.Comment)

			r.Group(func(r chi.Router) {
				r.Use(voteLimit)
				r.Patch("/{id}/upvote", h.vote(vote.OpUpvote))
				r.Patch("/{id}/downvote", h.vote(vote.OpDownvote))
				r.Patch("/{id}/unvote", h.vote(vote.OpUnvote))
				r.Patch("/{id}/unvote/downvote", h.vote(vote.OpUnvoteDownvote))
			})

			r.With(adminOrAsker).Patch("/{id}/status", h.MarkAnswered)
			r.With(middleware.RequireAdmin(admins)).Delete("/{id}/admin", h.AdminDelete)
		})
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

func (h *Handler) writeDetail(w http.ResponseWriter, d *Detail, err error) {
	if err != nil {
		core.HandleError(w, err)
		return
	}
	core.OK(w, ToAnswerResponse(d))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnswerRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAnswerResponse(d))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeDetail(w, d, err)
}

func searchFromRequest(r *http.Request) SearchParams {
	q := r.URL.Query()
	return SearchParams{
		PageParams: core.PageFromRequest(r),
		Text:       q.Get("text"),
		Status:     q.Get("status"),
	}
}

func (h *Handler) writeList(
	w http.ResponseWriter,
	params SearchParams,
	list []Detail,
	total int64,
	err error,
) {
	if err != nil {
		core.HandleError(w, err)
		return
	}
	core.Paginated(w, ToAnswerResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) validParams(w http.ResponseWriter, params *SearchParams) bool {
	if err := h.validator.Struct(params); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	params.Normalize()
	return true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := searchFromRequest(r)
	if !h.validParams(w, &params) {
		return
	}

	list, total, err := h.service.List(r.Context(), params)
	h.writeList(w, params, list, total, err)
}

func (h *Handler) ByQuestion(w http.ResponseWriter, r *http.Request) {
	params := searchFromRequest(r)
	if !h.validParams(w, &params) {
		return
	}

	list, total, err := h.service.ByQuestion(r.Context(), chi.URLParam(r, "id"), params)
	h.writeList(w, params, list, total, err)
}

func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	params := searchFromRequest(r)
	params.UserID = chi.URLParam(r, "id")
	if !h.validParams(w, &params) {
		return
	}

	list, total, err := h.service.List(r.Context(), params)
	h.writeList(w, params, list, total, err)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) UserCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAnswerRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	h.writeDetail(w, d, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) vote(op vote.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tally, err := h.service.Vote(r.Context(), middleware.GetUserID(r.Context()), id, op)
		if err != nil {
			core.HandleError(w, err)
			return
		}

		core.OK(w, VoteResponse{ID: id, Tally: tally, Score: tally.Score()})
	}
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Acknowledge(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	h.writeDetail(w, d, err)
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Comment(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToAnswerResponse(d))
}

func (h *Handler) MarkAnswered(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.MarkAnswered(r.Context(), chi.URLParam(r, "id"))
	h.writeDetail(w, d, err)
}
