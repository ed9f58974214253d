package models

import "strings"

// UserRole is a tier of access to the admin API. Higher tiers include the lower ones.
type UserRole string

const (
	RoleViewer     UserRole = "viewer"
	RoleSales      UserRole = "sales"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

var roleRank = map[UserRole]int{
	RoleViewer:     1,
	RoleSales:      2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

func IsValidRole(role UserRole) bool {
	_, ok := roleRank[role]
	return ok
}

func IsValidRoleList(roles []UserRole) bool {
	if len(roles) == 0 {
		return false
	}
	for _, r := range roles {
		if !IsValidRole(r) {
			return false
		}
	}
	return true
}

// NormalizeRoles lowercases, trims and de-duplicates roles, preserving order.
func NormalizeRoles(roles []UserRole) []UserRole {
	seen := make(map[UserRole]struct{}, len(roles))
	out := make([]UserRole, 0, len(roles))
	for _, r := range roles {
		n := UserRole(strings.ToLower(strings.TrimSpace(string(r))))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// HasAtLeast reports whether any role ranks at or above required.
func HasAtLeast(roles []UserRole, required UserRole) bool {
	need := roleRank[required]
	for _, r := range roles {
		if roleRank[r] >= need && need > 0 {
			return true
		}
	}
	return false
}

// HighestRole returns the top ranked valid role, or "" when there is none.
func HighestRole(roles []UserRole) UserRole {
	var best UserRole
	for _, r := range roles {
		if roleRank[r] > roleRank[best] {
			best = r
		}
	}
	return best
}
