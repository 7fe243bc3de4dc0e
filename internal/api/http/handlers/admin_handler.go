package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/api/dto"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// AdminHandler exposes till administration endpoints.
type AdminHandler struct {
	tills TillAPI
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tillService TillAPI) *AdminHandler {
	return &AdminHandler{tills: tillService}
}

// ListTills handles GET /admin/tills.
func (h *AdminHandler) ListTills(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	tills, err := h.tills.ListTills(c.UserContext(), token)
	if err != nil {
		return err
	}

	resp := make([]dto.TillResponse, 0, len(tills))
	for _, t := range tills {
		resp = append(resp, dto.NewTillResponse(t))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ForceLogout handles POST /admin/tills/:id/force-logout.
func (h *AdminHandler) ForceLogout(c *fiber.Ctx) error {
	token, err := bearer(c)
	if err != nil {
		return err
	}
	tillID, err := c.ParamsInt("id")
	if err != nil || tillID <= 0 {
		return apperrors.NewValidationError("invalid till id", map[string]any{"id": c.Params("id")})
	}

	if err := h.tills.ForceLogoutUser(c.UserContext(), token, int64(tillID)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
