// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ToggleSuspended(ctx context.Context, id string) (*User, error)
	ToggleDeleted(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int64, error)
	Count(ctx context.Context) (int64, error)
	ListEmails(ctx context.Context) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, email, password_hash, first_name, last_name, name, profile_image,
	provider, provider_id, is_suspended, is_deleted, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name,
		                   name, profile_image, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Name,
		user.ProfileImage,
		user.Provider,
		user.ProviderID,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, name = $4, profile_image = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Name,
		user.ProfileImage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

// ToggleSuspended flips is_suspended in one statement so concurrent
// toggles serialize on the row.
func (r *repository) ToggleSuspended(
	ctx context.Context,
	id string,
) (*User, error) {
	return r.toggle(ctx, id, "is_suspended")
}

func (r *repository) ToggleDeleted(
	ctx context.Context,
	id string,
) (*User, error) {
	return r.toggle(ctx, id, "is_deleted")
}

func (r *repository) toggle(
	ctx context.Context,
	id, column string,
) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = NOT %[1]s, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, column)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("toggle %s: %w", column, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle %s: %w", column, err)
	}

	return &user, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int64, error) {
	params.Normalize()

	var where core.Where

	if params.FirstName != "" {
		where.Add("first_name ILIKE $%d", "%"+core.EscapeLike(params.FirstName)+"%")
	}
	if params.LastName != "" {
		where.Add("last_name ILIKE $%d", "%"+core.EscapeLike(params.LastName)+"%")
	}
	if params.Name != "" {
		where.Add(
			"(name ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			"%"+core.EscapeLike(params.Name)+"%",
		)
	}
	if params.Email != "" {
		where.Add("email ILIKE $%d", "%"+core.EscapeLike(params.Email)+"%")
	}
	if params.Suspended != nil {
		where.Add("is_suspended = $%d", *params.Suspended)
	}
	if params.Deleted != nil {
		where.Add("is_deleted = $%d", *params.Deleted)
	}

	whereClause := where.Clause()
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	next := where.Next()
	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, next, next+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// ListEmails returns the address of every account that is not soft-deleted.
func (r *repository) ListEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.SelectContext(ctx, &emails,
		`SELECT email FROM users WHERE is_deleted = FALSE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list user emails: %w", err)
	}
	return emails, nil
}
