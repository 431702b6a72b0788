// AngelaMos | 2026
// repository.go

package answer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Answer) error
	Exists(ctx context.Context, questionID, userID, text string) (bool, error)
	GetByID(ctx context.Context, id string) (*Answer, error)
	Update(ctx context.Context, a *Answer) error
	SetStatus(ctx context.Context, id, status string) (*Answer, error)
	Acknowledge(ctx context.Context, id, userID string) (*Answer, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params SearchParams) ([]Answer, int64, error)
	Count(ctx context.Context) (int64, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	AddComment(ctx context.Context, c *Comment) error
	Comments(ctx context.Context, answerIDs []string) (map[string][]Comment, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const answerColumns = `
	id, question_id, user_id, text, status, image_urls, acknowledged_by,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, a *Answer) error {
	query := `
		INSERT INTO answers (id, question_id, user_id, text, status, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.QuestionID,
		a.UserID,
		a.Text,
		a.Status,
		a.ImageURLs,
	)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create answer: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create answer: %w", err)
	}

	return nil
}

func (r *repository) Exists(
	ctx context.Context,
	questionID, userID, text string,
) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `
		SELECT EXISTS (
			SELECT 1 FROM answers
			WHERE question_id = $1 AND user_id = $2 AND md5(text) = md5($3)
		)`, questionID, userID, text)
	if err != nil {
		return false, fmt.Errorf("check answer: %w", err)
	}
	return ok, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Answer, error) {
	var a Answer
	err := r.db.GetContext(ctx, &a,
		`SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get answer: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}

	return &a, nil
}

func (r *repository) Update(ctx context.Context, a *Answer) error {
	row := r.db.QueryRowxContext(ctx, `
		UPDATE answers
		SET text = $2, image_urls = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Text, a.ImageURLs)

	err := row.Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update answer: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update answer: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update answer: %w", err)
	}

	return nil
}

func (r *repository) setColumn(
	ctx context.Context,
	id, column, value string,
) (*Answer, error) {
	query := fmt.Sprintf(`
		UPDATE answers
		SET %s = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+answerColumns, column)

	var a Answer
	err := r.db.GetContext(ctx, &a, query, id, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set %s: %w", column, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", column, err)
	}

	return &a, nil
}

func (r *repository) SetStatus(ctx context.Context, id, status string) (*Answer, error) {
	return r.setColumn(ctx, id, "status", status)
}

func (r *repository) Acknowledge(ctx context.Context, id, userID string) (*Answer, error) {
	return r.setColumn(ctx, id, "acknowledged_by", userID)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete answer: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params SearchParams,
) ([]Answer, int64, error) {
	params.Normalize()

	var where core.Where
	if params.Text != "" {
		where.Add("text ILIKE $%d", "%"+core.EscapeLike(params.Text)+"%")
	}
	if params.Status != "" {
		where.Add("status = $%d", params.Status)
	}
	if params.QuestionID != "" {
		where.Add("question_id = $%d", params.QuestionID)
	}
	if params.UserID != "" {
		where.Add("user_id = $%d", params.UserID)
	}

	whereClause := where.Clause()
	args := where.Args()

	var total int64
	countQuery := "SELECT COUNT(*) FROM answers WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count answers: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+answerColumns+`
		FROM answers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []Answer
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list answers: %w", err)
	}

	return list, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM answers`); err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

func (r *repository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM answers WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("count user answers: %w", err)
	}
	return n, nil
}

func (r *repository) AddComment(ctx context.Context, c *Comment) error {
	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO answer_comments (answer_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.AnswerID, c.UserID, c.Text)

	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// Comments groups the comments of every answer in answerIDs, oldest first.
func (r *repository) Comments(
	ctx context.Context,
	answerIDs []string,
) (map[string][]Comment, error) {
	out := make(map[string][]Comment, len(answerIDs))
	if len(answerIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, answer_id, user_id, text, created_at
		FROM answer_comments
		WHERE answer_id IN (?)
		ORDER BY id`, answerIDs)
	if err != nil {
		return nil, fmt.Errorf("build comments query: %w", err)
	}

	var rows []Comment
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	for _, c := range rows {
		out[c.AnswerID] = append(out[c.AnswerID], c)
	}
	return out, nil
}
