// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *AdminUser) error
	Bootstrap(ctx context.Context, a *AdminUser) error
	GetByID(ctx context.Context, id string) (*AdminUserWithUser, error)
	GetByUserID(ctx context.Context, userID string) (*AdminUserWithUser, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	RoleExists(ctx context.Context, role string) (bool, error)
	AssignRole(ctx context.Context, id, userID, role string) (*AdminUser, error)
	Update(ctx context.Context, id string, req UpdateAdminRequest) (*AdminUser, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]AdminUserWithUser, int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository needs the pool itself rather than core.DBTX because the
// bootstrap grant runs in its own transaction.
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const adminColumns = `id, user_id, is_admin, role, created_at, updated_at`

const joinedSelect = `
	SELECT a.id, a.user_id, a.is_admin, a.role, a.created_at, a.updated_at,
	       u.email, u.first_name, u.last_name
	FROM admin_users a
	LEFT JOIN users u ON u.id = a.user_id`

func (r *repository) Create(ctx context.Context, a *AdminUser) error {
	return create(ctx, r.db, a)
}

func create(ctx context.Context, db core.DBTX, a *AdminUser) error {
	query := `
		INSERT INTO admin_users (id, user_id, is_admin, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	row := db.QueryRowxContext(ctx, query, a.ID, a.UserID, a.IsAdmin, a.Role)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create admin user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create admin user: %w", err)
	}

	return nil
}

// Bootstrap inserts the first admin grant. The advisory lock serializes
// concurrent bootstraps so only one of them can see an empty table.
func (r *repository) Bootstrap(ctx context.Context, a *AdminUser) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext('admin_bootstrap'))`); err != nil {
			return fmt.Errorf("lock bootstrap: %w", err)
		}

		var exists bool
		err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM admin_users WHERE is_admin)`)
		if err != nil {
			return fmt.Errorf("check admins: %w", err)
		}
		if exists {
			return fmt.Errorf("bootstrap admin: %w", core.ErrForbidden)
		}

		return create(ctx, tx, a)
	})
}

func (r *repository) getOne(
	ctx context.Context,
	where string,
	arg any,
) (*AdminUserWithUser, error) {
	var a AdminUserWithUser
	err := r.db.GetContext(ctx, &a, joinedSelect+" WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get admin user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return &a, nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*AdminUserWithUser, error) {
	return r.getOne(ctx, "a.id = $1", id)
}

func (r *repository) GetByUserID(
	ctx context.Context,
	userID string,
) (*AdminUserWithUser, error) {
	return r.getOne(ctx, "a.user_id = $1", userID)
}

func (r *repository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1 AND is_admin)`,
		userID)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

func (r *repository) RoleExists(ctx context.Context, role string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (
			SELECT 1 FROM admin_users WHERE user_id IS NULL AND LOWER(role) = LOWER($1)
		)`, role)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

// AssignRole upserts the user's grant, leaving is_admin as it was.
func (r *repository) AssignRole(
	ctx context.Context,
	id, userID, role string,
) (*AdminUser, error) {
	query := `
		INSERT INTO admin_users (id, user_id, is_admin, role)
		VALUES ($1, $2, FALSE, $3)
		ON CONFLICT (user_id) WHERE user_id IS NOT NULL DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING ` + adminColumns

	var a AdminUser
	if err := r.db.GetContext(ctx, &a, query, id, userID, role); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return &a, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	req UpdateAdminRequest,
) (*AdminUser, error) {
	query := `
		UPDATE admin_users
		SET is_admin = COALESCE($2, is_admin),
		    role = COALESCE($3, role),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + adminColumns

	var a AdminUser
	err := r.db.GetContext(ctx, &a, query, id, req.IsAdmin, req.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update admin user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("update admin user: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("update admin user: %w", err)
	}
	return &a, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete admin user: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete admin user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]AdminUserWithUser, int64, error) {
	params.Normalize()

	var where core.Where
	if params.IsAdmin != nil {
		where.Add("a.is_admin = $%d", *params.IsAdmin)
	}
	if params.Role != "" {
		where.Add("a.role ILIKE $%d", "%"+core.EscapeLike(params.Role)+"%")
	}

	whereClause := where.Clause()
	args := where.Args()

	var total int64
	countQuery := "SELECT COUNT(*) FROM admin_users a WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admin users: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY a.created_at DESC
		LIMIT $%d OFFSET $%d`,
		joinedSelect, whereClause, next, next+1)
	args = append(args, params.PageSize, params.Offset())

	var list []AdminUserWithUser
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admin users: %w", err)
	}

	return list, total, nil
}

func (r *repository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM admin_users WHERE is_admin`); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
