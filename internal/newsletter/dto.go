// AngelaMos | 2026
// dto.go

package newsletter

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type BroadcastRequest struct {
	From    string `json:"from"    validate:"omitempty,max=255"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=50000"`
}

type UpdateRecordRequest struct {
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=50000"`
	Status  *string `json:"status,omitempty"  validate:"omitempty,oneof=pending sent failed"`
}

type RecordSearch struct {
	core.PageParams
	BroadcastID string `json:"broadcast_id" validate:"omitempty,uuid"`
	Status      string `json:"status"       validate:"omitempty,oneof=pending sent failed"`
	Email       string `json:"email"        validate:"max=255"`
}

type SubscriberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type RecordResponse struct {
	ID          string    `json:"id"`
	BroadcastID string    `json:"broadcast_id"`
	Sender      string    `json:"sender"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type BroadcastResponse struct {
	BroadcastID string   `json:"broadcast_id"`
	Recipients  int      `json:"recipients"`
	Sent        int      `json:"sent"`
	Failed      []string `json:"failed"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func ToSubscriberResponse(s *Subscriber) SubscriberResponse {
	return SubscriberResponse{ID: s.ID, Email: s.Email, CreatedAt: s.CreatedAt}
}

func ToSubscriberResponseList(list []Subscriber) []SubscriberResponse {
	out := make([]SubscriberResponse, 0, len(list))
	for i := range list {
		out = append(out, ToSubscriberResponse(&list[i]))
	}
	return out
}

func ToRecordResponse(r *Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		BroadcastID: r.BroadcastID,
		Sender:      r.Sender,
		Email:       r.Email,
		Subject:     r.Subject,
		Content:     r.Content,
		Status:      r.Status,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRecordResponseList(list []Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(list))
	for i := range list {
		out = append(out, ToRecordResponse(&list[i]))
	}
	return out
}

func ToBroadcastResponse(r *BroadcastResult) BroadcastResponse {
	failed := r.Failed
	if failed == nil {
		failed = []string{}
	}
	return BroadcastResponse{
		BroadcastID: r.BroadcastID,
		Recipients:  r.Recipients,
		Sent:        r.Sent,
		Failed:      failed,
	}
}
