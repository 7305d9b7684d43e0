package auth

import (
	"fmt"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Errors returned by Service, already mapped onto the httpx taxonomy.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: %w", httpx.ErrUnauthorized, shared.ErrInvalidCredentials)
	ErrAccountInactive    = fmt.Errorf("%w: %w", httpx.ErrForbidden, shared.ErrAccountInactive)
	ErrAccountLocked      = fmt.Errorf("%w: %w", httpx.ErrLocked, shared.ErrAccountLocked)
)

// User represents an account as seen by the sign-in flow.
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         authz.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest carries a password change for the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
