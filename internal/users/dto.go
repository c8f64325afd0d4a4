package users

import (
	"time"

	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
)

// UserDTO is the transport shape returned to authenticated callers.
type UserDTO struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	EmailVerified *time.Time     `json:"email_verified,omitempty"`
	FirstName     *string        `json:"first_name,omitempty"`
	LastName      *string        `json:"last_name,omitempty"`
	Avatar        *string        `json:"avatar,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	PhoneVerified bool           `json:"phone_verified"`
	Role          enums.UserRole `json:"role"`
	IsActive      bool           `json:"is_active"`
	IsBanned      bool           `json:"is_banned"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateUserDTO holds the provider payload fields persisted on a created event.
// The id is the provider-assigned user id, never generated locally.
type CreateUserDTO struct {
	ID            string
	Email         string
	EmailVerified *time.Time
	FirstName     *string
	LastName      *string
	Avatar        *string
	Phone         *string
	PhoneVerified bool
	CreatedAt     time.Time
}

// UpdateProfileDTO carries the profile fields an updated event may overwrite.
// Role and lifecycle flags are never part of this path.
type UpdateProfileDTO struct {
	Email         string
	FirstName     *string
	LastName      *string
	Avatar        *string
	Phone         *string
	PhoneVerified bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Avatar:        u.Avatar,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		Role:          u.Role,
		IsActive:      u.IsActive,
		IsBanned:      u.IsBanned,
		CreatedAt:     u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &models.User{
		ID:            c.ID,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Avatar:        c.Avatar,
		Phone:         c.Phone,
		PhoneVerified: c.PhoneVerified,
		Role:          enums.UserRoleCustomer,
		IsActive:      true,
		CreatedAt:     createdAt,
	}
}
