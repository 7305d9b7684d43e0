package users

import (
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// RegisterRequest is the staff-driven account creation payload.
type RegisterRequest struct {
	Name            string      `json:"name" validate:"required,min=3,max=50"`
	Email           string      `json:"email" validate:"required,email,max=254"`
	Password        string      `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            *authz.Role `json:"role" validate:"required"`
}

// SelfRegisterRequest is the public sign-up payload. It carries no role.
type SelfRegisterRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UpdateRequest edits profile fields. Nil fields are left untouched.
type UpdateRequest struct {
	Name  *string     `json:"name,omitempty" validate:"omitempty,min=3,max=50"`
	Email *string     `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Role  *authz.Role `json:"role,omitempty"`
}

// ListRequest carries listing filters from the query string.
type ListRequest struct {
	Search string
	Role   *authz.Role
	Active *bool
	Page   shared.PageRequest
}

// ListResponse is a page of accounts.
type ListResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}
