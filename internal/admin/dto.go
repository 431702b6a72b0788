// AngelaMos | 2026
// dto.go

package admin

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type CreateRoleRequest struct {
	Role string `json:"role" validate:"required,min=2,max=50"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role"    validate:"required,min=2,max=50"`
}

type UpdateAdminRequest struct {
	IsAdmin *bool   `json:"is_admin,omitempty"`
	Role    *string `json:"role,omitempty"     validate:"omitempty,min=2,max=50"`
}

// ListParams is the enumerated admin search.
type ListParams struct {
	core.PageParams
	IsAdmin *bool  `json:"is_admin"`
	Role    string `json:"role"     validate:"max=50"`
}

type AdminUserResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminLoginResponse struct {
	auth.AuthResponse
	IsAdmin bool   `json:"is_admin"`
	Role    string `json:"role,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ToAdminUserResponse(a *AdminUserWithUser) AdminUserResponse {
	return AdminUserResponse{
		ID:        a.ID,
		UserID:    deref(a.UserID),
		IsAdmin:   a.IsAdmin,
		Role:      deref(a.Role),
		Email:     deref(a.Email),
		FirstName: deref(a.FirstName),
		LastName:  deref(a.LastName),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func ToAdminUserResponseList(list []AdminUserWithUser) []AdminUserResponse {
	out := make([]AdminUserResponse, 0, len(list))
	for i := range list {
		out = append(out, ToAdminUserResponse(&list[i]))
	}
	return out
}
