package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// User represents an account (admin, manager, seller, billing staff).
type User struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Password    string          `json:"-"`
	FullName    string          `json:"full_name"`
	Role        bazaar.UserRole `json:"role"`
	TOTPSecret  string          `json:"-"`
	TOTPEnabled bool            `json:"totp_enabled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	Role        bazaar.UserRole `json:"role"`
	TOTPEnabled bool            `json:"totp_enabled"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		TOTPEnabled: u.TOTPEnabled,
		CreatedAt:   u.CreatedAt,
	}
}

// Token purposes.
const (
	TokenPurposePasswordReset = "password_reset"
	TokenPurposeEmailChange   = "email_change"
)

// UserToken is a single-use link token; only its hash is stored.
type UserToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Purpose   string
	TokenHash string
	NewEmail  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
