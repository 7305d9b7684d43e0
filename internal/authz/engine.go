package authz

import (
	"context"
	"errors"
)

// Engine evaluates policies against principals. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	store UserStore
}

// NewEngine constructs an Engine resolving accounts through store.
func NewEngine(store UserStore) (*Engine, error) {
	if store == nil {
		return nil, errors.New("authz: user store is required")
	}
	return &Engine{store: store}, nil
}

// Evaluate decides whether principal satisfies policy. ownerID is only
// consulted by ownership policies and may be empty otherwise.
//
// Every call re-resolves the account, so a deactivation takes effect on the
// next check. Store failures deny.
func (e *Engine) Evaluate(ctx context.Context, principal *Principal, policy Policy, ownerID string) Decision {
	decision, _ := e.evaluate(ctx, principal, policy, ownerID)
	return decision
}

// evaluate also returns the resolved account so the guard can publish it.
func (e *Engine) evaluate(ctx context.Context, principal *Principal, policy Policy, ownerID string) (Decision, Account) {
	if principal == nil || !principal.Authenticated || principal.ID == "" {
		return DenyUnauthenticated, Account{}
	}
	account, err := e.store.Resolve(ctx, principal.ID)
	if err != nil || !account.Active {
		return DenyForbidden, Account{}
	}
	// The store record is authoritative; the session may carry a stale role.
	account.ID = principal.ID
	if !policy.permits(account, ownerID) {
		return DenyForbidden, account
	}
	return Allow, account
}

// CanManage reports whether actor may perform action on target. Rules are
// evaluated in order and the first match wins.
func CanManage(actor, target Account, action Action) bool {
	if target.Role == RoleSuperAdmin && actor.Role != RoleSuperAdmin {
		return false
	}
	if action == ActionToggleStatus && target.ID == actor.ID {
		return false
	}
	if !actor.Role.AtLeast(RoleAdmin) {
		return false
	}
	return true
}

// CanAssignRole reports whether actor may create or promote an account into
// requested. Public self-registration does not go through this check; it
// always assigns RoleTrainee.
func CanAssignRole(actor Account, requested Role) bool {
	switch requested {
	case RoleAdmin, RoleSuperAdmin:
		return actor.Role == RoleSuperAdmin
	case RoleTrainee, RoleInstructor:
		return actor.Role.Valid()
	default:
		return false
	}
}

// VisibleRoles returns the roles whose accounts actor may list or look up.
func VisibleRoles(actor Account) RoleSet {
	if actor.Role == RoleSuperAdmin {
		return NewRoleSet(AllRoles()...)
	}
	return NewRoleSet(RoleTrainee, RoleInstructor, RoleAdmin)
}
