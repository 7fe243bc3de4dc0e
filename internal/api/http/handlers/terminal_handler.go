package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/api/dto"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// TerminalHandler exposes endpoints called by point-of-sale terminals.
type TerminalHandler struct {
	auth  AuthAPI
	tills TillAPI
}

// NewTerminalHandler constructs handler.
func NewTerminalHandler(authService AuthAPI, tillService TillAPI) *TerminalHandler {
	return &TerminalHandler{auth: authService, tills: tillService}
}

// Register handles POST /terminal/register.
func (h *TerminalHandler) Register(c *fiber.Ctx) error {
	var req dto.TerminalRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.RegistrationUUID == "" {
		return apperrors.NewValidationError("registration_uuid required", nil)
	}

	result, err := h.auth.RegisterTerminal(c.UserContext(), req.RegistrationUUID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"till": dto.NewTillResponse(result.Terminal.Till),
			"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles POST /terminal/logout.
func (h *TerminalHandler) Logout(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	if err := h.auth.LogoutTerminal(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckUserLogin handles POST /terminal/user/check-login.
func (h *TerminalHandler) CheckUserLogin(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}

	var req dto.TillUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	roles, err := h.tills.CheckUserLogin(c.UserContext(), token, req.UserTagUID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserRoleResponses(roles)})
}

// LoginUser handles POST /terminal/user/login.
func (h *TerminalHandler) LoginUser(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}

	var req dto.TillUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	user, err := h.tills.LoginUser(c.UserContext(), token, req.UserTagUID, req.RoleID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCurrentUserResponse(user)})
}

// LogoutUser handles POST /terminal/user/logout.
func (h *TerminalHandler) LogoutUser(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	if err := h.tills.LogoutUser(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CurrentUser handles GET /terminal/user.
func (h *TerminalHandler) CurrentUser(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	user, err := h.tills.GetCurrentUser(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCurrentUserResponse(user)})
}

// CheckPrivileges handles POST /terminal/privileges/check.
func (h *TerminalHandler) CheckPrivileges(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}

	var req dto.PrivilegeCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	if err := h.tills.CheckPrivileges(c.UserContext(), token, req.Privileges...); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"allowed": true}})
}
