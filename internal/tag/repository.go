// AngelaMos | 2026
// repository.go

package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Tag) error
	GetByID(ctx context.Context, id string) (*Tag, error)
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params core.PageParams, search string) ([]Tag, int64, error)
	Usage(ctx context.Context, name string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const tagColumns = `id, name, created_at, updated_at`

func (r *repository) Create(ctx context.Context, t *Tag) error {
	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`,
		t.ID, t.Name)

	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create tag: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tag, error) {
	var t Tag
	err := r.db.GetContext(ctx, &t, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tag: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

func (r *repository) Update(ctx context.Context, t *Tag) error {
	err := r.db.GetContext(ctx, &t.UpdatedAt, `
		UPDATE tags SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update tag: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update tag: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete tag: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(
	ctx context.Context,
	params core.PageParams,
	search string,
) ([]Tag, int64, error) {
	params.Normalize()

	var where core.Where
	if search != "" {
		where.Add("name ILIKE $%d", "%"+core.EscapeLike(search)+"%")
	}
	whereClause := where.Clause()
	args := where.Args()

	var total int64
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM tags WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+tagColumns+`
		FROM tags
		WHERE %s
		ORDER BY LOWER(name)
		LIMIT $%d OFFSET $%d`,
		whereClause, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []Tag
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}
	return list, total, nil
}

// Usage counts the questions carrying the tag name.
func (r *repository) Usage(ctx context.Context, name string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM questions WHERE tags @> jsonb_build_array($1::text)`, name)
	if err != nil {
		return 0, fmt.Errorf("count tag usage: %w", err)
	}
	return n, nil
}
