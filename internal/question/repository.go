// AngelaMos | 2026
// repository.go

package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id string) (*Question, error)
	GetBySlug(ctx context.Context, slug string) (*Question, error)
	GetByTitle(ctx context.Context, title string) (*Question, error)
	ExistsForUser(ctx context.Context, userID, title string) (bool, error)
	SlugsLike(ctx context.Context, base string) ([]string, error)
	Update(ctx context.Context, q *Question, expectedVersion int) error
	SetStatus(ctx context.Context, id, status string) (*Question, error)
	SetAnswerStatus(ctx context.Context, id, status string) (*Question, error)
	SetSlug(ctx context.Context, id, slug string) error
	MissingSlugs(ctx context.Context) ([]Question, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params SearchParams) ([]Question, int64, error)
	Count(ctx context.Context) (int64, error)
	Tags(ctx context.Context) ([]string, error)
	TagCounts(ctx context.Context) ([]TagCount, error)
	CountsForUser(ctx context.Context, userID string) (UserCounts, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const questionColumns = `
	q.id, q.user_id, q.category_id, q.title, q.description, q.slug, q.status,
	q.answer_status, q.tags, q.image_urls, q.send_answer_email, q.version,
	q.created_at, q.updated_at`

var sortOrders = map[string]string{
	"newest": "q.created_at DESC",
	"popular": `(SELECT COUNT(*) FROM views v
		WHERE v.kind = 'question' AND v.target_id = q.id) DESC, q.created_at DESC`,
	"upvotes": `(SELECT COUNT(*) FROM votes v
		WHERE v.kind = 'question' AND v.target_id = q.id AND v.direction = 'up') DESC,
		q.created_at DESC`,
	"downvotes": `(SELECT COUNT(*) FROM votes v
		WHERE v.kind = 'question' AND v.target_id = q.id AND v.direction = 'down') DESC,
		q.created_at DESC`,
}

func (r *repository) Create(ctx context.Context, q *Question) error {
	query := `
		INSERT INTO questions (id, user_id, category_id, title, description, slug,
		                       status, answer_status, tags, image_urls,
		                       send_answer_email, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		q.ID,
		q.UserID,
		q.CategoryID,
		q.Title,
		q.Description,
		q.Slug,
		q.Status,
		q.AnswerStatus,
		q.Tags,
		q.ImageURLs,
		q.SendAnswerEmail,
		q.Version,
	)
	if err := row.Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create question: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create question: %w", err)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	where string,
	arg any,
) (*Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q WHERE ` + where +
		` ORDER BY q.created_at LIMIT 1`

	var q Question
	err := r.db.GetContext(ctx, &q, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get question: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	return &q, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Question, error) {
	return r.getOne(ctx, "q.id = $1", id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Question, error) {
	return r.getOne(ctx, "q.slug = $1", slug)
}

func (r *repository) GetByTitle(ctx context.Context, title string) (*Question, error) {
	return r.getOne(ctx, "LOWER(q.title) = LOWER($1)", title)
}

func (r *repository) ExistsForUser(
	ctx context.Context,
	userID, title string,
) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE user_id = $1 AND title = $2)`,
		userID, title)
	if err != nil {
		return false, fmt.Errorf("check question title: %w", err)
	}
	return ok, nil
}

// SlugsLike returns base itself and every base-N slug already stored.
func (r *repository) SlugsLike(ctx context.Context, base string) ([]string, error) {
	var slugs []string
	err := r.db.SelectContext(ctx, &slugs,
		`SELECT slug FROM questions WHERE slug = $1 OR slug LIKE $2`,
		base, core.EscapeLike(base)+"-%")
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	return slugs, nil
}

// Update writes the editable fields only when the stored version still
// equals expectedVersion, bumping it on success.
func (r *repository) Update(
	ctx context.Context,
	q *Question,
	expectedVersion int,
) error {
	query := `
		UPDATE questions
		SET title = $3, description = $4, category_id = $5, tags = $6,
		    image_urls = $7, send_answer_email = $8,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		q.ID,
		expectedVersion,
		q.Title,
		q.Description,
		q.CategoryID,
		q.Tags,
		q.ImageURLs,
		q.SendAnswerEmail,
	)
	err := row.Scan(&q.Version, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update question: %w", core.ErrConflict)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update question: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update question: %w", err)
	}

	return nil
}

func (r *repository) setColumn(
	ctx context.Context,
	id, column, value string,
) (*Question, error) {
	query := fmt.Sprintf(`
		UPDATE questions q
		SET %s = $2, version = version + 1, updated_at = NOW()
		WHERE q.id = $1
		RETURNING `+questionColumns, column)

	var q Question
	err := r.db.GetContext(ctx, &q, query, id, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set %s: %w", column, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", column, err)
	}

	return &q, nil
}

func (r *repository) SetStatus(ctx context.Context, id, status string) (*Question, error) {
	return r.setColumn(ctx, id, "status", status)
}

func (r *repository) SetAnswerStatus(
	ctx context.Context,
	id, status string,
) (*Question, error) {
	return r.setColumn(ctx, id, "answer_status", status)
}

func (r *repository) SetSlug(ctx context.Context, id, slug string) error {
	_, err := r.setColumn(ctx, id, "slug", slug)
	if core.IsDuplicateKeyError(err) {
		return fmt.Errorf("set slug: %w", core.ErrDuplicateKey)
	}
	return err
}

func (r *repository) MissingSlugs(ctx context.Context) ([]Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q
		WHERE q.slug IS NULL OR q.slug = ''
		ORDER BY q.created_at`

	var list []Question
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("list questions without slug: %w", err)
	}
	return list, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete question: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params SearchParams,
) ([]Question, int64, error) {
	params.Normalize()

	var where core.Where
	if params.Title != "" {
		where.Add("q.title ILIKE $%d", "%"+core.EscapeLike(params.Title)+"%")
	}
	if params.Description != "" {
		where.Add("q.description ILIKE $%d", "%"+core.EscapeLike(params.Description)+"%")
	}
	if params.Tag != "" {
		where.Add("q.tags @> jsonb_build_array($%d::text)", params.Tag)
	}
	if params.Status != "" {
		where.Add("q.status = $%d", params.Status)
	}
	if params.AnswerStatus != "" {
		where.Add("q.answer_status = $%d", params.AnswerStatus)
	}
	if params.CategoryID != "" {
		where.Add("q.category_id = $%d", params.CategoryID)
	}
	if params.UserID != "" {
		where.Add("q.user_id = $%d", params.UserID)
	}
	if params.HasAnswers != nil {
		exists := "EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id)"
		if *params.HasAnswers {
			where.Raw(exists)
		} else {
			where.Raw("NOT " + exists)
		}
	}

	whereClause := where.Clause()
	args := where.Args()

	var total int64
	countQuery := "SELECT COUNT(*) FROM questions q WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	order, ok := sortOrders[params.Sort]
	if !ok {
		order = sortOrders["newest"]
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+questionColumns+`
		FROM questions q
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, order, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []Question
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	return list, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM questions`); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (r *repository) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.db.SelectContext(ctx, &tags, `
		SELECT DISTINCT t.tag
		FROM questions q, jsonb_array_elements_text(q.tags) AS t(tag)
		ORDER BY t.tag`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *repository) TagCounts(ctx context.Context) ([]TagCount, error) {
	var counts []TagCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT t.tag AS tag, COUNT(*) AS count
		FROM questions q, jsonb_array_elements_text(q.tags) AS t(tag)
		GROUP BY t.tag
		ORDER BY count DESC, t.tag`)
	if err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}
	return counts, nil
}

func (r *repository) CountsForUser(
	ctx context.Context,
	userID string,
) (UserCounts, error) {
	var c UserCounts
	err := r.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM questions WHERE user_id = $1) AS questions,
			(SELECT COUNT(*) FROM answers WHERE user_id = $1) AS answers`, userID)
	if err != nil {
		return UserCounts{}, fmt.Errorf("count user content: %w", err)
	}
	return c, nil
}
