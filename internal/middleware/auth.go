// Package middleware provides fiber middleware for request authentication
// and authorization.
package middleware

import (
	"log"
	"strings"

	"kobo/internal/models"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenVersions looks up the current token version for a user so revoked
// sessions can be rejected.
type TokenVersions interface {
	GetByID(id uint) (*models.User, error)
}

// AuthMiddleware validates bearer tokens and loads claims into the
// request context.
type AuthMiddleware struct {
	users TokenVersions
}

func NewAuthMiddleware(users TokenVersions) *AuthMiddleware {
	if users == nil {
		panic("user lookup is required")
	}
	return &AuthMiddleware{users: users}
}

// Handler rejects requests without a valid, current access token. On
// success the claims are available as c.Locals("claims") and the user ID
// as c.Locals("userID").
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, claims, err := utils.ParseToken(tokenString)
	if err != nil || !token.Valid {
		return utils.Unauthorized(c, "invalid token")
	}

	user, err := m.users.GetByID(claims.UserID)
	if err != nil {
		log.Printf("user %d from token not found", claims.UserID)
		return utils.Unauthorized(c, "invalid token")
	}

	if claims.TokenVersion != user.TokenVersion {
		return utils.Unauthorized(c, "session expired")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// Claims returns the authenticated claims stored by Handler, or nil.
func Claims(c *fiber.Ctx) *models.UserClaims {
	claims, _ := c.Locals("claims").(*models.UserClaims)
	return claims
}

// AdminOnly verifies that the authenticated user has the admin role.
func AdminOnly(c *fiber.Ctx) error {
	claims := Claims(c)
	if claims == nil {
		return utils.Unauthorized(c, "unauthorized")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if claims.Role == models.RoleAdmin {
			return c.Next()
		}
		if claims.HasPermission(permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
