// AngelaMos | 2026
// entity.go

package user

import "time"

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Name         string    `db:"name"`
	ProfileImage string    `db:"profile_image"`
	Provider     string    `db:"provider"`
	ProviderID   *string   `db:"provider_id"`
	IsSuspended  bool      `db:"is_suspended"`
	IsDeleted    bool      `db:"is_deleted"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CanPost reports whether the user may create questions, answers and
// comments.
func (u *User) CanPost() bool {
	return !u.IsSuspended && !u.IsDeleted
}

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)
