// AngelaMos | 2026
// query.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageParams struct {
	Page     int `json:"page"      validate:"min=0"`
	PageSize int `json:"page_size" validate:"min=0,max=100"`
}

func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p *PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func PageFromRequest(r *http.Request) PageParams {
	return PageParams{
		Page:     ParseIntQuery(r, "page", 1),
		PageSize: ParseIntQuery(r, "page_size", DefaultPageSize),
	}
}

func ParseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}

// ParseBoolQuery returns nil when the parameter is absent or malformed.
func ParseBoolQuery(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}

	return &b
}

// Where accumulates AND-ed conditions with positional placeholders.
type Where struct {
	conditions []string
	args       []any
}

// Add appends a condition. Every %d verb in cond is replaced by the
// placeholder index of arg.
func (w *Where) Add(cond string, arg any) {
	w.args = append(w.args, arg)
	idx := len(w.args)
	n := strings.Count(cond, "%d")
	indexes := make([]any, n)
	for i := range indexes {
		indexes[i] = idx
	}
	w.conditions = append(w.conditions, fmt.Sprintf(cond, indexes...))
}

// Raw appends a condition without arguments.
func (w *Where) Raw(cond string) {
	w.conditions = append(w.conditions, cond)
}

func (w *Where) Clause() string {
	if len(w.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conditions, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}

// Next returns the next free placeholder index.
func (w *Where) Next() int {
	return len(w.args) + 1
}

func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
