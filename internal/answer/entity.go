// AngelaMos | 2026
// entity.go

package answer

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

const (
	StatusNotAnswered = "Not answered"
	StatusAnswered    = "Answered"
)

type Answer struct {
	ID             string          `db:"id"`
	QuestionID     string          `db:"question_id"`
	UserID         string          `db:"user_id"`
	Text           string          `db:"text"`
	Status         string          `db:"status"`
	ImageURLs      core.StringList `db:"image_urls"`
	AcknowledgedBy *string         `db:"acknowledged_by"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Comment is append-only; there is no edit or delete.
type Comment struct {
	ID        int64     `db:"id"`
	AnswerID  string    `db:"answer_id"`
	UserID    string    `db:"user_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

type Detail struct {
	Answer   *Answer
	Tally    vote.Tally
	Comments []Comment
}
