// Package authz decides whether an acting principal may perform an action,
// and which account-management operations it may carry out on other accounts.
//
// The engine is a pure decision component. It consumes a Principal built from
// the session and a declared Policy, resolves the principal's current account
// state through a UserStore, and returns a Decision. Callers translate the
// Decision into a response.
package authz

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned by UserStore implementations when no account
// matches the id.
var ErrAccountNotFound = errors.New("authz: account not found")

// Principal describes the actor of a request as seen by the session layer.
type Principal struct {
	ID            string
	Role          Role
	Active        bool
	Authenticated bool
}

// Account is the user-store view of a principal.
type Account struct {
	ID     string
	Role   Role
	Active bool
}

// UserStore resolves the current state of an account.
type UserStore interface {
	Resolve(ctx context.Context, id string) (Account, error)
}

// UserStoreFunc adapts a function to UserStore.
type UserStoreFunc func(ctx context.Context, id string) (Account, error)

// Resolve implements UserStore.
func (f UserStoreFunc) Resolve(ctx context.Context, id string) (Account, error) {
	return f(ctx, id)
}

// Decision is the outcome of one evaluation.
type Decision string

const (
	// Allow means the request may proceed.
	Allow Decision = "allow"
	// DenyUnauthenticated means no authenticated session was presented.
	DenyUnauthenticated Decision = "deny_unauthenticated"
	// DenyForbidden means the principal is known but may not proceed.
	DenyForbidden Decision = "deny_forbidden"
)

// Allowed reports whether d permits the request.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Action names an account-management operation checked by CanManage.
type Action string

const (
	// ActionToggleStatus activates or deactivates an account.
	ActionToggleStatus Action = "toggle_status"
	// ActionEdit changes profile fields or role.
	ActionEdit Action = "edit"
	// ActionDelete removes an account.
	ActionDelete Action = "delete"
)
