package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/api/dto"
	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/repository"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// CustomerHandler exposes the customer portal endpoints.
type CustomerHandler struct {
	auth      AuthAPI
	customers CustomerAPI
}

// NewCustomerHandler constructs handler.
func NewCustomerHandler(authService AuthAPI, customerService CustomerAPI) *CustomerHandler {
	return &CustomerHandler{auth: authService, customers: customerService}
}

// Login handles POST /customer/auth/login.
func (h *CustomerHandler) Login(c *fiber.Ctx) error {
	var req dto.CustomerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	tagUID, err := domain.ParseUserTagUID(req.UserTagUID)
	if err != nil {
		return apperrors.NewAccessDenied("invalid user tag")
	}

	result, err := h.auth.LoginCustomer(c.UserContext(), tagUID, req.Pin)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"customer": dto.NewCustomerResponse(result.Customer),
			"auth":     dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles POST /customer/auth/logout.
func (h *CustomerHandler) Logout(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	if err := h.auth.LogoutCustomer(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /customer/me.
func (h *CustomerHandler) Me(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	customer, err := h.customers.GetCustomer(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// UpdateInfo handles POST /customer/info.
func (h *CustomerHandler) UpdateInfo(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}

	var req dto.CustomerInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	customer, err := h.customers.UpdateCustomerInfo(c.UserContext(), token, repository.CustomerInfo{
		IBAN:        req.IBAN,
		AccountName: req.AccountName,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}
