// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name,omitempty"    validate:"omitempty,min=1,max=100"`
	LastName     *string `json:"last_name,omitempty"     validate:"omitempty,min=1,max=100"`
	Name         *string `json:"name,omitempty"          validate:"omitempty,max=100"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Provider     string    `json:"provider"`
	IsSuspended  bool      `json:"is_suspended"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListUsersParams is the full set of supported user filters.
type ListUsersParams struct {
	core.PageParams
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Name      string `json:"name"       validate:"max=100"`
	Email     string `json:"email"      validate:"max=255"`
	Suspended *bool  `json:"suspended"`
	Deleted   *bool  `json:"deleted"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		Provider:     u.Provider,
		IsSuspended:  u.IsSuspended,
		IsDeleted:    u.IsDeleted,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
