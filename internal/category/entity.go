// AngelaMos | 2026
// entity.go

package category

import (
	"strings"
	"time"
)

type Category struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NormalizeName joins the words of name with hyphens, so "Data  Science"
// becomes "Data-Science".
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), "-")
}
