// AngelaMos | 2026
// entity.go

package newsletter

import (
	"time"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Subscriber struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Record is one delivery of a broadcast to a single recipient.
type Record struct {
	ID          string    `db:"id"`
	BroadcastID string    `db:"broadcast_id"`
	Sender      string    `db:"sender"`
	Email       string    `db:"email"`
	Subject     string    `db:"subject"`
	Content     string    `db:"content"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
}

// BroadcastResult summarizes one fan-out. Failed lists the recipients whose
// delivery did not go through.
type BroadcastResult struct {
	BroadcastID string
	Recipients  int
	Sent        int
	Failed      []string
}
