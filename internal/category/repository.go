// AngelaMos | 2026
// repository.go

package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params core.PageParams) ([]Category, int64, error)
	QuestionIDs(ctx context.Context, id string) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const categoryColumns = `id, name, description, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.Description)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	var c Category
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	return &c, nil
}

func (r *repository) NameTaken(
	ctx context.Context,
	name, exceptID string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE LOWER(name) = LOWER($1) AND id::text <> $2
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, name, exceptID); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return taken, nil
}

func (r *repository) Update(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query, c.ID, c.Name, c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update category: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete category: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params core.PageParams,
) ([]Category, int64, error) {
	params.Normalize()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM categories`); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY name
		LIMIT $1 OFFSET $2`

	var list []Category
	if err := r.db.SelectContext(ctx, &list, query, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	return list, total, nil
}

// QuestionIDs is the back-reference from a category to its questions.
func (r *repository) QuestionIDs(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM questions WHERE category_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list category questions: %w", err)
	}
	return ids, nil
}
