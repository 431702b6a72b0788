// AngelaMos | 2026
// dto.go

package answer

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

type CreateAnswerRequest struct {
	QuestionID string   `json:"question_id" validate:"required,uuid"`
	Text       string   `json:"text"        validate:"required,min=1,max=5000"`
	Images     []string `json:"images"      validate:"max=10"`
}

type UpdateAnswerRequest struct {
	Text   *string   `json:"text,omitempty"   validate:"omitempty,min=1,max=5000"`
	Images *[]string `json:"images,omitempty" validate:"omitempty,max=10"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// SearchParams is the full set of supported answer filters.
type SearchParams struct {
	core.PageParams
	Text       string `json:"text"        validate:"max=300"`
	Status     string `json:"status"      validate:"omitempty,oneof='Not answered' Answered"`
	QuestionID string `json:"question_id" validate:"omitempty,uuid"`
	UserID     string `json:"user_id"     validate:"omitempty,uuid"`
}

type CommentResponse struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type AnswerResponse struct {
	ID             string            `json:"id"`
	QuestionID     string            `json:"question_id"`
	UserID         string            `json:"user_id"`
	Text           string            `json:"text"`
	Status         string            `json:"status"`
	ImageURLs      []string          `json:"image_urls"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	Upvotes        []string          `json:"upvotes"`
	Downvotes      []string          `json:"downvotes"`
	Comments       []CommentResponse `json:"comments"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type VoteResponse struct {
	ID string `json:"id"`
	vote.Tally
	Score int `json:"score"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func ToCommentResponseList(comments []Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{
			ID:        c.ID,
			UserID:    c.UserID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

func ToAnswerResponse(d *Detail) AnswerResponse {
	a := d.Answer
	resp := AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		UserID:     a.UserID,
		Text:       a.Text,
		Status:     a.Status,
		ImageURLs:  a.ImageURLs,
		Upvotes:    d.Tally.Upvotes,
		Downvotes:  d.Tally.Downvotes,
		Comments:   ToCommentResponseList(d.Comments),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.AcknowledgedBy != nil {
		resp.AcknowledgedBy = *a.AcknowledgedBy
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

func ToAnswerResponseList(list []Detail) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(list))
	for i := range list {
		out = append(out, ToAnswerResponse(&list[i]))
	}
	return out
}
