// AngelaMos | 2026
// tag.go

package tag

import (
	"strings"
	"time"
)

// Tag is a curated entry in the tag registry. Question tags stay free-form
// strings; the registry only offers a vetted list to pick from.
type Tag struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

type TagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type TagResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Questions int64     `json:"questions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToTagResponse(t *Tag, questions int64) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		Questions: questions,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToTagResponseList(list []Tag) []TagResponse {
	out := make([]TagResponse, 0, len(list))
	for i := range list {
		out = append(out, ToTagResponse(&list[i], 0))
	}
	return out
}
