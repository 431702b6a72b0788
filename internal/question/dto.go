// AngelaMos | 2026
// dto.go

package question

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

type CreateQuestionRequest struct {
	Title           string   `json:"title"             validate:"required,min=3,max=300"`
	Description     string   `json:"description"       validate:"required,min=6,max=1500"`
	CategoryID      string   `json:"category_id"       validate:"required,uuid"`
	Tags            []string `json:"tags"              validate:"max=10,dive,max=50"`
	Images          []string `json:"images"            validate:"max=10"`
	SendAnswerEmail bool     `json:"send_answer_email"`
}

// QuestionFields are the editable fields. Nil means unchanged.
type QuestionFields struct {
	Title           *string   `json:"title,omitempty"             validate:"omitempty,min=3,max=300"`
	Description     *string   `json:"description,omitempty"       validate:"omitempty,min=6,max=1500"`
	CategoryID      *string   `json:"category_id,omitempty"       validate:"omitempty,uuid"`
	Tags            *[]string `json:"tags,omitempty"              validate:"omitempty,max=10,dive,max=50"`
	Images          *[]string `json:"images,omitempty"            validate:"omitempty,max=10"`
	SendAnswerEmail *bool     `json:"send_answer_email,omitempty"`
}

// UpdateQuestionRequest is the owner edit. Version must match the stored
// version or the update is rejected with 409.
type UpdateQuestionRequest struct {
	QuestionFields
	Version int `json:"version" validate:"required,min=1"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Enable Disable"`
}

type DeleteImageRequest struct {
	URL string `json:"url" validate:"required"`
}

// SearchParams is the full set of supported question filters.
type SearchParams struct {
	core.PageParams
	Title        string `json:"title"         validate:"max=300"`
	Description  string `json:"description"   validate:"max=300"`
	Tag          string `json:"tag"           validate:"max=50"`
	Status       string `json:"status"        validate:"omitempty,oneof=Enable Disable"`
	AnswerStatus string `json:"answer_status" validate:"omitempty,oneof=Answered UnAnswered"`
	CategoryID   string `json:"category_id"   validate:"omitempty,uuid"`
	UserID       string `json:"user_id"       validate:"omitempty,uuid"`
	HasAnswers   *bool  `json:"has_answers"`
	Sort         string `json:"sort"          validate:"omitempty,oneof=newest popular upvotes downvotes"`
}

type QuestionResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CategoryID      string    `json:"category_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Slug            string    `json:"slug"`
	Status          string    `json:"status"`
	AnswerStatus    string    `json:"answer_status"`
	Tags            []string  `json:"tags"`
	ImageURLs       []string  `json:"image_urls"`
	SendAnswerEmail bool      `json:"send_answer_email"`
	Version         int       `json:"version"`
	Upvotes         []string  `json:"upvotes"`
	Downvotes       []string  `json:"downvotes"`
	Views           int64     `json:"views"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type VoteResponse struct {
	ID string `json:"id"`
	vote.Tally
	Score int `json:"score"`
}

type StatsResponse struct {
	ID        string `json:"id"`
	Views     int64  `json:"views"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

type TagCount struct {
	Tag   string `db:"tag"   json:"tag"`
	Count int64  `db:"count" json:"count"`
}

type UserCounts struct {
	Questions int64 `db:"questions" json:"questions"`
	Answers   int64 `db:"answers"   json:"answers"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type BackfillResponse struct {
	Updated int `json:"updated"`
}

func ToQuestionResponse(d *Detail) QuestionResponse {
	q := d.Question
	resp := QuestionResponse{
		ID:              q.ID,
		UserID:          q.UserID,
		CategoryID:      q.CategoryID,
		Title:           q.Title,
		Description:     q.Description,
		Status:          q.Status,
		AnswerStatus:    q.AnswerStatus,
		Tags:            q.Tags,
		ImageURLs:       q.ImageURLs,
		SendAnswerEmail: q.SendAnswerEmail,
		Version:         q.Version,
		Upvotes:         d.Tally.Upvotes,
		Downvotes:       d.Tally.Downvotes,
		Views:           d.Views,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
	if q.Slug != nil {
		resp.Slug = *q.Slug
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	if resp.Upvotes == nil {
		resp.Upvotes = []string{}
	}
	if resp.Downvotes == nil {
		resp.Downvotes = []string{}
	}
	return resp
}

func ToQuestionResponseList(list []Detail) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(list))
	for i := range list {
		out = append(out, ToQuestionResponse(&list[i]))
	}
	return out
}

func toVoteResponse(id string, t vote.Tally) VoteResponse {
	return VoteResponse{ID: id, Tally: t, Score: t.Score()}
}
