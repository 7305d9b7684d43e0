package authz

import (
	"fmt"
	"strings"
)

// Role is the privilege rank of an account. Higher values grant more.
type Role int

// Role ranks, ordered from least to most privileged.
const (
	RoleTrainee Role = iota
	RoleInstructor
	RoleAdmin
	RoleSuperAdmin
)

// rankUndefined sits below RoleTrainee so unknown roles fail every check.
const rankUndefined = -1

var roleNames = map[Role]string{
	RoleTrainee:    "trainee",
	RoleInstructor: "instructor",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// AllRoles lists every defined role in ascending rank.
func AllRoles() []Role {
	return []Role{RoleTrainee, RoleInstructor, RoleAdmin, RoleSuperAdmin}
}

// Valid reports whether r is one of the four defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Rank returns the ordinal used for comparisons.
func (r Role) Rank() int {
	if !r.Valid() {
		return rankUndefined
	}
	return int(r)
}

// AtLeast reports whether r meets min. Undefined roles never do.
func (r Role) AtLeast(min Role) bool {
	if !r.Valid() || !min.Valid() {
		return false
	}
	return r.Rank() >= min.Rank()
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "undefined"
}

// ParseRole converts a role name into a Role. Matching ignores case and
// surrounding whitespace.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return Role(rankUndefined), fmt.Errorf("authz: unknown role %q", s)
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("authz: cannot encode undefined role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is an unordered collection of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, dropping undefined ones.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.Valid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Contains reports membership. Undefined roles are never members.
func (s RoleSet) Contains(r Role) bool {
	if !r.Valid() {
		return false
	}
	_, ok := s[r]
	return ok
}

// Slice returns the members in ascending rank.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range AllRoles() {
		if _, ok := s[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
