// AngelaMos | 2026
// handler.go

package question

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

// RegisterRoutes mounts /questions. Reads are public; writes need a signed
// in caller; moderation needs the admin capability, except answer-status
// which the question owner may also set.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, voteLimit func(http.Handler) http.Handler,
	admins middleware.AdminChecker,
) {
	adminOnly := middleware.RequireAdmin(admins)
	adminOrOwner := middleware.Authorize(
		middleware.Admin(admins),
		middleware.Owner(h.service.OwnerOf, "id"),
	)

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/count", h.Count)
		r.Get("/tags", h.Tags)
		r.Get("/tags/count", h.TagCounts)
		r.Get("/tag/{tag}", h.ByTag)
		r.Get("/user/{id}", h.ByUser)
		r.Get("/user/{id}/counts", h.UserCounts)
		r.Get("/slug/{slug}", h.GetBySlug)
		r.Get("/by-title", h.GetByTitle)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/total-stats", h.TotalStats)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Delete("/{id}/image", h.DeleteImage)
			r.Get("/{id}/stats", h.Stats)

			r.Group(func(r chi.Router) {
				r.Use(voteLimit)
				r.Patch("/{id}/upvote", h.vote(vote.OpUpvote))
				r.Patch("/{id}/downvote", h.vote(vote.OpDownvote))
				r.Patch("/{id}/unvote", h.vote(vote.OpUnvote))
				r.Patch("/{id}/unvote/downvote", h.vote(vote.OpUnvoteDownvote))
			})

			r.With(adminOrOwner).Patch("/{id}/answer-status", h.MarkAnswered)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Patch("/{id}/status", h.SetStatus)
				r.Patch("/{id}/status/disable", h.setStatus(StatusDisable))
				r.Patch("/{id}/status/enable", h.setStatus(StatusEnable))
				r.Patch("/{id}/admin", h.AdminUpdate)
				r.Delete("/{id}/admin", h.AdminDelete)
				r.Post("/update-missing-slugs", h.BackfillSlugs)
			})
		})
	})
}

// RegisterAdminRoutes expects r to already enforce authentication and the
// admin capability.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/questions/enabled", h.listStatus(StatusEnable))
	r.Get("/questions/disabled", h.listStatus(StatusDisable))
	r.Delete("/questions/{id}", h.AdminDelete)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToQuestionResponse(d))
}

func (h *Handler) writeDetail(w http.ResponseWriter, d *Detail, err error) {
	if err != nil {
		core.HandleError(w, err)
		return
	}
	core.OK(w, ToQuestionResponse(d))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeDetail(w, d, err)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	h.writeDetail(w, d, err)
}

func (h *Handler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		core.BadRequest(w, "title is required")
		return
	}
	d, err := h.service.GetByTitle(r.Context(), title)
	h.writeDetail(w, d, err)
}

func searchFromRequest(r *http.Request) SearchParams {
	q := r.URL.Query()
	return SearchParams{
		PageParams:   core.PageFromRequest(r),
		Title:        q.Get("title"),
		Description:  q.Get("description"),
		Tag:          q.Get("tag"),
		Status:       q.Get("status"),
		AnswerStatus: q.Get("answer_status"),
		CategoryID:   q.Get("category_id"),
		UserID:       q.Get("user_id"),
		HasAnswers:   core.ParseBoolQuery(r, "has_answers"),
		Sort:         q.Get("sort"),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, params SearchParams) {
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

	core.Paginated(w, ToQuestionResponseList(list), params.Page, params.PageSize, total)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, searchFromRequest(r))
}

func (h *Handler) ByTag(w http.ResponseWriter, r *http.Request) {
	params := searchFromRequest(r)
	params.Tag = chi.URLParam(r, "tag")
	h.list(w, r, params)
}

func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	params := searchFromRequest(r)
	params.UserID = chi.URLParam(r, "id")
	h.list(w, r, params)
}

func (h *Handler) listStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := searchFromRequest(r)
		params.Status = status
		h.list(w, r, params)
	}
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, CountResponse{Count: n})
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, tags)
}

func (h *Handler) TagCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.TagCounts(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, counts)
}

func (h *Handler) UserCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountsForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, counts)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuestionRequest
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

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req QuestionFields
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.AdminUpdate(r.Context(), chi.URLParam(r, "id"), req)
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

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var req DeleteImageRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.DeleteImage(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req.URL,
	)
	h.writeDetail(w, d, err)
}

func (h *Handler) vote(op vote.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tally, err := h.service.Vote(r.Context(), middleware.GetUserID(r.Context()), id, op)
		if err != nil {
			core.HandleError(w, err)
			return
		}

		core.OK(w, toVoteResponse(id, tally))
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) TotalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.TotalStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeStatus(w, r, req.Status)
}

func (h *Handler) setStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeStatus(w, r, status)
	}
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, status string) {
	q, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	h.writeQuestion(w, r, q, err)
}

func (h *Handler) writeQuestion(
	w http.ResponseWriter,
	r *http.Request,
	q *Question,
	err error,
) {
	if err != nil {
		core.HandleError(w, err)
		return
	}
	d, err := h.service.detail(r.Context(), q)
	h.writeDetail(w, d, err)
}

func (h *Handler) MarkAnswered(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.MarkAnswered(r.Context(), chi.URLParam(r, "id"))
	h.writeQuestion(w, r, q, err)
}

func (h *Handler) BackfillSlugs(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.BackfillSlugs(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, BackfillResponse{Updated: n})
}
