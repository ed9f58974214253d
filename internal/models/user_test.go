package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoles(t *testing.T) {
	got := NormalizeRoles([]UserRole{" Admin", "admin", "", "SALES"})
	assert.Equal(t, []UserRole{RoleAdmin, RoleSales}, got)
}

func TestHasAtLeast(t *testing.T) {
	assert.True(t, HasAtLeast([]UserRole{RoleSuperAdmin}, RoleAdmin))
	assert.True(t, HasAtLeast([]UserRole{RoleViewer, RoleAdmin}, RoleAdmin))
	assert.False(t, HasAtLeast([]UserRole{RoleSales}, RoleAdmin))
	assert.False(t, HasAtLeast([]UserRole{RoleSuperAdmin}, "owner"))
}

func TestHighestRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, HighestRole([]UserRole{RoleViewer, RoleAdmin, RoleSales}))
	assert.Equal(t, UserRole(""), HighestRole([]UserRole{"owner"}))
	assert.Equal(t, UserRole(""), HighestRole(nil))
}
