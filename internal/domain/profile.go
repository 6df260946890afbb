package domain

import "strings"

// Role is the access role stored on a user profile.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFinance    Role = "finanzas"
	RoleOperations Role = "operaciones"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole normalizes a stored role string. Unknown values are returned
// as-is so the policy functions reject them.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Profile is the caller identity resolved from the authenticated uid.
type Profile struct {
	UID      string
	Name     string
	Email    string
	Role     Role
	TenantID string
}
