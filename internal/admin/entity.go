// AngelaMos | 2026
// entity.go

package admin

import (
	"time"
)

// AdminUser is either a grant for one user (UserID set) or a role
// definition (UserID nil, Role set).
type AdminUser struct {
	ID        string    `db:"id"`
	UserID    *string   `db:"user_id"`
	IsAdmin   bool      `db:"is_admin"`
	Role      *string   `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AdminUserWithUser joins the grant to the public fields of its user.
type AdminUserWithUser struct {
	AdminUser
	Email     *string `db:"email"`
	FirstName *string `db:"first_name"`
	LastName  *string `db:"last_name"`
}
