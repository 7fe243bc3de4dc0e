package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/auth"
	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/repository"
	"github.com/stagepay/pos-core/internal/service"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// AuthAPI is the part of service.AuthService the HTTP layer uses.
type AuthAPI interface {
	LoginUser(ctx context.Context, login, password string, roleID *int64) (*service.UserLogin, error)
	LogoutUser(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.CurrentUser, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	RegisterTerminal(ctx context.Context, registrationUUID string) (*service.TerminalRegistration, error)
	LogoutTerminal(ctx context.Context, token string) error
	LoginCustomer(ctx context.Context, userTagUID uint64, pin string) (*service.CustomerLogin, error)
	LogoutCustomer(ctx context.Context, token string) error
}

// TillAPI is the part of service.TillService the HTTP layer uses.
type TillAPI interface {
	CheckUserLogin(ctx context.Context, token string, userTagUID uint64) ([]domain.UserRole, error)
	LoginUser(ctx context.Context, token string, userTagUID uint64, roleID int64) (*domain.CurrentUser, error)
	LogoutUser(ctx context.Context, token string) error
	GetCurrentUser(ctx context.Context, token string) (*domain.CurrentUser, error)
	CheckPrivileges(ctx context.Context, token string, privileges ...domain.Privilege) error
	ListTills(ctx context.Context, token string) ([]domain.Till, error)
	ForceLogoutUser(ctx context.Context, token string, tillID int64) error
}

// CustomerAPI is the part of service.CustomerService the HTTP layer uses.
type CustomerAPI interface {
	GetCustomer(ctx context.Context, token string) (*domain.Customer, error)
	UpdateCustomerInfo(ctx context.Context, token string, info repository.CustomerInfo) (*domain.Customer, error)
}

var (
	_ AuthAPI     = (*service.AuthService)(nil)
	_ TillAPI     = (*service.TillService)(nil)
	_ CustomerAPI = (*service.CustomerService)(nil)
)

// bearer returns the token stored by auth.BearerToken.
func bearer(c *fiber.Ctx) (string, error) {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return token, nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
