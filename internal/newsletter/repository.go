// AngelaMos | 2026
// repository.go

package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	CreateSubscriber(ctx context.Context, s *Subscriber) error
	GetSubscriber(ctx context.Context, id string) (*Subscriber, error)
	UpdateSubscriber(ctx context.Context, s *Subscriber) error
	DeleteSubscriber(ctx context.Context, id string) error
	ListSubscribers(ctx context.Context, params core.PageParams, search string) ([]Subscriber, int64, error)
	CountSubscribers(ctx context.Context) (int64, error)
	SubscriberEmails(ctx context.Context) ([]string, error)

	CreateRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, id string) (*Record, error)
	UpdateRecord(ctx context.Context, r *Record) error
	SetRecordStatus(ctx context.Context, id, status, errMsg string) error
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, params RecordSearch) ([]Record, int64, error)
	BroadcastExists(ctx context.Context, sender, subject, content string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const (
	subscriberColumns = `id, email, created_at`
	recordColumns     = `id, broadcast_id, sender, email, subject, content, status, error, created_at`
)

func (r *repository) CreateSubscriber(ctx context.Context, s *Subscriber) error {
	err := r.db.GetContext(ctx, &s.CreatedAt, `
		INSERT INTO newsletter_subscribers (id, email)
		VALUES ($1, $2)
		RETURNING created_at`,
		s.ID, s.Email)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create subscriber: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

func (r *repository) GetSubscriber(ctx context.Context, id string) (*Subscriber, error) {
	var s Subscriber
	err := r.db.GetContext(ctx, &s,
		`SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscriber: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return &s, nil
}

func (r *repository) UpdateSubscriber(ctx context.Context, s *Subscriber) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE newsletter_subscribers SET email = $2 WHERE id = $1`, s.ID, s.Email)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update subscriber: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update subscriber: %w", err)
	}
	return requireRow(result, "update subscriber")
}

func (r *repository) DeleteSubscriber(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM newsletter_subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return requireRow(result, "delete subscriber")
}

func (r *repository) ListSubscribers(
	ctx context.Context,
	params core.PageParams,
	search string,
) ([]Subscriber, int64, error) {
	params.Normalize()

	var where core.Where
	if search != "" {
		where.Add("email ILIKE $%d", "%"+core.EscapeLike(search)+"%")
	}
	whereClause := where.Clause()
	args := where.Args()

	var total int64
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM newsletter_subscribers WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+subscriberColumns+`
		FROM newsletter_subscribers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []Subscriber
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	return list, total, nil
}

func (r *repository) CountSubscribers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM newsletter_subscribers`); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

func (r *repository) SubscriberEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.SelectContext(ctx, &emails,
		`SELECT email FROM newsletter_subscribers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscriber emails: %w", err)
	}
	return emails, nil
}

func (r *repository) CreateRecord(ctx context.Context, rec *Record) error {
	err := r.db.GetContext(ctx, &rec.CreatedAt, `
		INSERT INTO newsletters (id, broadcast_id, sender, email, subject, content, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		rec.ID,
		rec.BroadcastID,
		rec.Sender,
		rec.Email,
		rec.Subject,
		rec.Content,
		rec.Status,
	)
	if err != nil {
		return fmt.Errorf("create newsletter record: %w", err)
	}
	return nil
}

func (r *repository) GetRecord(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec,
		`SELECT `+recordColumns+` FROM newsletters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get newsletter record: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get newsletter record: %w", err)
	}
	return &rec, nil
}

func (r *repository) UpdateRecord(ctx context.Context, rec *Record) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE newsletters
		SET subject = $2, content = $3, status = $4, error = $5
		WHERE id = $1`,
		rec.ID, rec.Subject, rec.Content, rec.Status, rec.Error)
	if err != nil {
		return fmt.Errorf("update newsletter record: %w", err)
	}
	return requireRow(result, "update newsletter record")
}

func (r *repository) SetRecordStatus(ctx context.Context, id, status, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE newsletters SET status = $2, error = $3 WHERE id = $1`,
		id, status, errMsg)
	if err != nil {
		return fmt.Errorf("set newsletter status: %w", err)
	}
	return requireRow(result, "set newsletter status")
}

func (r *repository) DeleteRecord(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM newsletters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete newsletter record: %w", err)
	}
	return requireRow(result, "delete newsletter record")
}

func (r *repository) ListRecords(
	ctx context.Context,
	params RecordSearch,
) ([]Record, int64, error) {
	params.Normalize()

	var where core.Where
	if params.BroadcastID != "" {
		where.Add("broadcast_id = $%d", params.BroadcastID)
	}
	if params.Status != "" {
		where.Add("status = $%d", params.Status)
	}
	if params.Email != "" {
		where.Add("email ILIKE $%d", "%"+core.EscapeLike(params.Email)+"%")
	}
	whereClause := where.Clause()
	args := where.Args()

	var total int64
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM newsletters WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count newsletter records: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+recordColumns+`
		FROM newsletters
		WHERE %s
		ORDER BY created_at DESC, email
		LIMIT $%d OFFSET $%d`,
		whereClause, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []Record
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list newsletter records: %w", err)
	}
	return list, total, nil
}

func (r *repository) BroadcastExists(
	ctx context.Context,
	sender, subject, content string,
) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `
		SELECT EXISTS (
			SELECT 1 FROM newsletters
			WHERE sender = $1 AND subject = $2 AND md5(content) = md5($3)
		)`, sender, subject, content)
	if err != nil {
		return false, fmt.Errorf("check broadcast: %w", err)
	}
	return ok, nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
