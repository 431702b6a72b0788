// AngelaMos | 2026
// entity.go

package question

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

const (
	StatusEnable  = "Enable"
	StatusDisable = "Disable"

	AnswerStatusAnswered   = "Answered"
	AnswerStatusUnanswered = "UnAnswered"
)

type Question struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	CategoryID      string          `db:"category_id"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	Slug            *string         `db:"slug"`
	Status          string          `db:"status"`
	AnswerStatus    string          `db:"answer_status"`
	Tags            core.StringList `db:"tags"`
	ImageURLs       core.StringList `db:"image_urls"`
	SendAnswerEmail bool            `db:"send_answer_email"`
	Version         int             `db:"version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Detail is a question with its engagement state.
type Detail struct {
	Question *Question
	Tally    vote.Tally
	Views    int64
}

const fallbackSlug = "question"

// BaseSlug derives the collision-free form of a title's slug.
func BaseSlug(title string) string {
	s := slug.Make(title)
	if s == "" {
		return fallbackSlug
	}
	return s
}

// UniqueSlug returns base when it is free, otherwise base-1, base-2 and so
// on, picking the first suffix not in taken.
func UniqueSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}

	if _, ok := used[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
