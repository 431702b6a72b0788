// AngelaMos | 2026
// repository.go

package vote

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// Store persists one row per (kind, target, voter). The primary key makes
// the single-position rule structural.
type Store interface {
	Cast(ctx context.Context, kind Kind, targetID, userID string, dir Direction) error
	Retract(ctx context.Context, kind Kind, targetID, userID string, dir Direction) error
	Tally(ctx context.Context, kind Kind, targetID string) (Tally, error)
	Tallies(ctx context.Context, kind Kind, targetIDs []string) (map[string]Tally, error)
	RecordView(ctx context.Context, kind Kind, targetID, viewerID string) (bool, error)
	CountViews(ctx context.Context, kind Kind, targetID string) (int64, error)
	CountViewsFor(ctx context.Context, kind Kind, targetIDs []string) (map[string]int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Store {
	return &repository{db: db}
}

func (r *repository) Cast(
	ctx context.Context,
	kind Kind,
	targetID, userID string,
	dir Direction,
) error {
	query := `
		INSERT INTO votes (kind, target_id, user_id, direction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, target_id, user_id) DO UPDATE
		SET direction = EXCLUDED.direction, updated_at = NOW()
		WHERE votes.direction <> EXCLUDED.direction`

	if _, err := r.db.ExecContext(ctx, query, kind, targetID, userID, dir); err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	return nil
}

func (r *repository) Retract(
	ctx context.Context,
	kind Kind,
	targetID, userID string,
	dir Direction,
) error {
	query := `
		DELETE FROM votes
		WHERE kind = $1 AND target_id = $2 AND user_id = $3 AND direction = $4`

	if _, err := r.db.ExecContext(ctx, query, kind, targetID, userID, dir); err != nil {
		return fmt.Errorf("retract vote: %w", err)
	}
	return nil
}

type voteRow struct {
	TargetID  string    `db:"target_id"`
	UserID    string    `db:"user_id"`
	Direction Direction `db:"direction"`
}

func (r *repository) Tally(
	ctx context.Context,
	kind Kind,
	targetID string,
) (Tally, error) {
	tallies, err := r.Tallies(ctx, kind, []string{targetID})
	if err != nil {
		return Tally{}, err
	}
	if t, ok := tallies[targetID]; ok {
		return t, nil
	}
	return NewTally(), nil
}

func (r *repository) Tallies(
	ctx context.Context,
	kind Kind,
	targetIDs []string,
) (map[string]Tally, error) {
	out := make(map[string]Tally, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT target_id, user_id, direction
		FROM votes
		WHERE kind = ? AND target_id IN (?)
		ORDER BY created_at, user_id`, kind, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("build tally query: %w", err)
	}

	var rows []voteRow
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}

	for _, id := range targetIDs {
		out[id] = NewTally()
	}
	for _, row := range rows {
		t := out[row.TargetID]
		switch row.Direction {
		case Up:
			t.Upvotes = append(t.Upvotes, row.UserID)
		case Down:
			t.Downvotes = append(t.Downvotes, row.UserID)
		}
		out[row.TargetID] = t
	}

	return out, nil
}

func (r *repository) RecordView(
	ctx context.Context,
	kind Kind,
	targetID, viewerID string,
) (bool, error) {
	query := `
		INSERT INTO views (kind, target_id, viewer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, target_id, viewer_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, kind, targetID, viewerID)
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) CountViews(
	ctx context.Context,
	kind Kind,
	targetID string,
) (int64, error) {
	query := `SELECT COUNT(*) FROM views WHERE kind = $1 AND target_id = $2`

	var n int64
	if err := r.db.GetContext(ctx, &n, query, kind, targetID); err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

func (r *repository) CountViewsFor(
	ctx context.Context,
	kind Kind,
	targetIDs []string,
) (map[string]int64, error) {
	out := make(map[string]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT target_id, COUNT(*) AS n
		FROM views
		WHERE kind = ? AND target_id IN (?)
		GROUP BY target_id`, kind, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("build view count query: %w", err)
	}

	var rows []struct {
		TargetID string `db:"target_id"`
		N        int64  `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}

	for _, row := range rows {
		out[row.TargetID] = row.N
	}
	return out, nil
}
