package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"kobo/internal/models"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users map[uint]*models.User
}

func (s *stubUsers) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func newTestApp(t *testing.T, users *stubUsers) *fiber.App {
	t.Helper()
	app := fiber.New()
	auth := NewAuthMiddleware(users)
	app.Get("/me", auth.Handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": Claims(c).UserID})
	})
	app.Get("/admin", auth.Handler, AdminOnly, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/reconcile", auth.Handler, HasPermission(models.PermAdminReconcile), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.DefaultPermissions(user.Role),
	})
	require.NoError(t, err)
	return access
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{Email: "ada@example.com", Role: models.RoleUser, TokenVersion: 1}
	user.ID = 1
	admin := &models.User{Email: "ops@example.com", Role: models.RoleAdmin, TokenVersion: 1}
	admin.ID = 2
	app := newTestApp(t, &stubUsers{users: map[uint]*models.User{1: user, 2: admin}})

	request := func(path, token string) int {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request("/me", ""))
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request("/me", "not-a-jwt"))
	})

	t.Run("valid token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusOK, request("/me", tokenFor(t, user)))
	})

	t.Run("stale token version", func(t *testing.T) {
		token := tokenFor(t, user)
		user.TokenVersion++
		defer func() { user.TokenVersion-- }()
		assert.Equal(t, fiber.StatusUnauthorized, request("/me", token))
	})

	t.Run("admin route blocks users", func(t *testing.T) {
		assert.Equal(t, fiber.StatusForbidden, request("/admin", tokenFor(t, user)))
		assert.Equal(t, fiber.StatusOK, request("/admin", tokenFor(t, admin)))
	})

	t.Run("permission route", func(t *testing.T) {
		assert.Equal(t, fiber.StatusForbidden, request("/reconcile", tokenFor(t, user)))
		assert.Equal(t, fiber.StatusOK, request("/reconcile", tokenFor(t, admin)))
	})
}
