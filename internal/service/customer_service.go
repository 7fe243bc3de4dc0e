package service

import (
	"context"
	"strings"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
	"github.com/stagepay/pos-core/internal/repository"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// CustomerService serves the customer portal.
type CustomerService struct {
	pool      persistence.Pool
	customers repository.CustomerRepository
	authz     *Authorizer
}

// NewCustomerService creates the service.
func NewCustomerService(pool persistence.Pool, customers repository.CustomerRepository, authz *Authorizer) *CustomerService {
	return &CustomerService{pool: pool, customers: customers, authz: authz}
}

// GetCustomer returns the calling customer.
func (s *CustomerService) GetCustomer(ctx context.Context, token string) (*domain.Customer, error) {
	op := Chain[*domain.Customer](func(_ context.Context, call *Call) (*domain.Customer, error) {
		return call.Customer, nil
	}, WithConnection[*domain.Customer](s.pool), RequireCustomer[*domain.Customer](s.authz))

	return op(ctx, &Call{Token: token})
}

// UpdateCustomerInfo stores payout details of the calling customer.
func (s *CustomerService) UpdateCustomerInfo(ctx context.Context, token string, info repository.CustomerInfo) (*domain.Customer, error) {
	info.IBAN = normalizeIBAN(info.IBAN)
	if info.Email != nil && !strings.Contains(*info.Email, "@") {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": *info.Email})
	}

	op := Chain[*domain.Customer](func(ctx context.Context, call *Call) (*domain.Customer, error) {
		if err := s.customers.UpdateInfo(ctx, call.Conn, call.Customer.ID, info); err != nil {
			return nil, err
		}
		updated := *call.Customer
		updated.IBAN = info.IBAN
		updated.AccountName = info.AccountName
		updated.Email = info.Email
		return &updated, nil
	}, WithTransaction[*domain.Customer](s.pool), RequireCustomer[*domain.Customer](s.authz))

	return op(ctx, &Call{Token: token})
}

func normalizeIBAN(iban *string) *string {
	if iban == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.ReplaceAll(*iban, " ", ""))
	if normalized == "" {
		return nil
	}
	return &normalized
}
