package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims carries identity information encoded in access tokens.
type UserClaims struct {
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	TokenVersion int      `json:"token_version"`
	Permissions  []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Permission constants
const (
	PermWalletRead     = "wallet:read"
	PermWalletTransact = "wallet:transact"
	PermAdminReconcile = "admin:reconcile"
	PermAdminRates     = "admin:rates"
)

// DefaultPermissions returns the permission set granted to a role.
func DefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermWalletRead, PermWalletTransact, PermAdminReconcile, PermAdminRates}
	default:
		return []string{PermWalletRead, PermWalletTransact}
	}
}

// HasPermission checks whether the claims contain the given permission.
func (c *UserClaims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
