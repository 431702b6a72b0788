// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is the single stored refresh token of a user. Issuing a new
// pair overwrites it.
type RefreshToken struct {
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	UserAgent string    `db:"user_agent"`
	IPAddress string    `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
