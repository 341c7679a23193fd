package handlers

import (
	"kobo/internal/services/auth"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Tag      string `json:"tag"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	user, err := h.authService.Register(c.Context(), auth.RegisterInput{
		Email:    input.Email,
		Phone:    input.Phone,
		Tag:      input.Tag,
		Name:     input.Name,
		Password: input.Password,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"tag":   user.Tag,
		},
		"message": "activation code sent",
	})
}

func (h *AuthHandler) RequestActivation(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.authService.RequestActivation(c.Context(), input.Email); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "activation code sent"})
}

func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.authService.Activate(c.Context(), input.Email, input.Code); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "account activated"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	user, access, refresh, err := h.authService.Login(c.Context(), input.Email, input.Password, c.IP())
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"tag":   user.Tag,
			"role":  user.Role,
		},
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	access, refresh, err := h.authService.RefreshTokens(input.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	if err := h.authService.Logout(claims.UserID); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.authService.ChangePassword(claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "password changed"})
}
