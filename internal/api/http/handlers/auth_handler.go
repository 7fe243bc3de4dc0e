package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/api/dto"
)

// AuthHandler exposes back-office user auth endpoints.
type AuthHandler struct {
	auth AuthAPI
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService AuthAPI) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	result, err := h.auth.LoginUser(c.UserContext(), req.Login, req.Password, req.RoleID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewCurrentUserResponse(result.User),
			"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	if err := h.auth.LogoutUser(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCurrentUserResponse(user)})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	if err := h.auth.ChangePassword(c.UserContext(), token, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}
