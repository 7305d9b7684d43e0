// Package users manages accounts: listing, registration, profile edits,
// activation and removal. Every mutation is gated by the authz engine.
package users

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
)

var (
	// ErrUserNotFound is returned for missing accounts and for accounts the
	// caller may not see.
	ErrUserNotFound = fmt.Errorf("user %w", httpx.ErrNotFound)
	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
	// ErrManageDenied is returned when CanManage rejects the operation.
	ErrManageDenied = fmt.Errorf("not allowed to manage this account: %w", httpx.ErrForbidden)
	// ErrRoleDenied is returned when CanAssignRole rejects the requested role.
	ErrRoleDenied = fmt.Errorf("not allowed to assign this role: %w", httpx.ErrForbidden)

	errInvalidID = errors.New("users: invalid account id")
)

// User represents an account.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         authz.Role `json:"role"`
	IsActive     bool       `json:"is_active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Account projects the user onto the authz view.
func (u User) Account() authz.Account {
	return authz.Account{ID: FormatID(u.ID), Role: u.Role, Active: u.IsActive}
}

// ListFilter narrows a listing. Roles is always populated by the service with
// the roles visible to the caller.
type ListFilter struct {
	Search string
	Roles  []authz.Role
	Active *bool
	Limit  int
	Offset int
}

// FormatID renders an account id the way sessions and authz carry it.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID is the inverse of FormatID.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// NormalizeEmail trims and case-folds an address so lookups are
// case-insensitive. Casers are stateful, so each call builds its own.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
