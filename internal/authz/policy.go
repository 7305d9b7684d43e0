package authz

import (
	"strings"
)

type policyKind int

const (
	kindMinimumRole policyKind = iota + 1
	kindExactRoles
	kindOwnerOrMinimum
)

// Policy is a declared access rule. The zero value denies everything.
// Policies are immutable once constructed.
type Policy struct {
	kind       policyKind
	minimum    Role
	roles      RoleSet
	ownerParam string
}

// MinimumRole allows principals whose rank is at least r.
func MinimumRole(r Role) Policy {
	return Policy{kind: kindMinimumRole, minimum: r}
}

// ExactRoles allows principals whose role is one of roles.
func ExactRoles(roles ...Role) Policy {
	return Policy{kind: kindExactRoles, roles: NewRoleSet(roles...)}
}

// OwnerOrMinimum allows principals meeting min, or owning the resource
// identified by the ownerParam request parameter.
func OwnerOrMinimum(ownerParam string, min Role) Policy {
	return Policy{kind: kindOwnerOrMinimum, minimum: min, ownerParam: ownerParam}
}

// OwnerOrAdmin is OwnerOrMinimum with the default Admin threshold.
func OwnerOrAdmin(ownerParam string) Policy {
	return OwnerOrMinimum(ownerParam, RoleAdmin)
}

// Named policies shared by the HTTP layer.
var (
	SuperAdminOnly    = MinimumRole(RoleSuperAdmin)
	AdminOrAbove      = MinimumRole(RoleAdmin)
	InstructorOrAbove = MinimumRole(RoleInstructor)
	AnyUser           = MinimumRole(RoleTrainee)
	StaffOnly         = ExactRoles(RoleAdmin, RoleSuperAdmin)
)

// OwnerParam returns the request parameter naming the resource owner, or ""
// for policies that do not consider ownership.
func (p Policy) OwnerParam() string {
	if p.kind != kindOwnerOrMinimum {
		return ""
	}
	return p.ownerParam
}

// RequiresOwner reports whether the policy consults a resource owner id.
func (p Policy) RequiresOwner() bool {
	return p.kind == kindOwnerOrMinimum
}

func (p Policy) permits(account Account, ownerID string) bool {
	switch p.kind {
	case kindMinimumRole:
		return account.Role.AtLeast(p.minimum)
	case kindExactRoles:
		return p.roles.Contains(account.Role)
	case kindOwnerOrMinimum:
		if account.Role.AtLeast(p.minimum) {
			return true
		}
		return ownerID != "" && ownerID == account.ID
	default:
		return false
	}
}

// String renders a compact label, used for logs and metric labels.
func (p Policy) String() string {
	switch p.kind {
	case kindMinimumRole:
		return "min:" + p.minimum.String()
	case kindExactRoles:
		names := make([]string, 0, len(p.roles))
		for _, r := range p.roles.Slice() {
			names = append(names, r.String())
		}
		return "exact:" + strings.Join(names, ",")
	case kindOwnerOrMinimum:
		return "owner(" + p.ownerParam + ")|min:" + p.minimum.String()
	default:
		return "none"
	}
}
