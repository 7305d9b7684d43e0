package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  SuperAdmin ")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, r)

	r, err = ParseRole("owner")
	assert.Error(t, err)
	assert.False(t, r.Valid())
	assert.Equal(t, -1, r.Rank())
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleInstructor.AtLeast(RoleInstructor))
	assert.False(t, RoleTrainee.AtLeast(RoleInstructor))
	assert.False(t, Role(7).AtLeast(RoleTrainee))
	assert.False(t, RoleSuperAdmin.AtLeast(Role(7)))
	assert.Equal(t, "undefined", Role(7).String())
}

func TestRoleJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleInstructor})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"instructor"}`, string(payload))

	var decoded struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"ADMIN"}`), &decoded))
	assert.Equal(t, RoleAdmin, decoded.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &decoded))
}

func TestRoleSetDropsUndefined(t *testing.T) {
	set := NewRoleSet(RoleAdmin, Role(11), RoleTrainee)
	assert.Len(t, set, 2)
	assert.Equal(t, []Role{RoleTrainee, RoleAdmin}, set.Slice())
	assert.False(t, set.Contains(Role(11)))
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "min:admin", AdminOrAbove.String())
	assert.Equal(t, "exact:admin,superadmin", StaffOnly.String())
	assert.Equal(t, "owner(id)|min:instructor", OwnerOrMinimum("id", RoleInstructor).String())
	assert.Equal(t, "none", Policy{}.String())
	assert.Equal(t, "id", OwnerOrAdmin("id").OwnerParam())
	assert.Equal(t, "", AdminOrAbove.OwnerParam())
}
