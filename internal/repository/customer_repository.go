package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
)

// CustomerInfo holds the self-service fields a customer may change.
type CustomerInfo struct {
	IBAN        *string
	AccountName *string
	Email       *string
}

// CustomerRepository manages customer accounts and customer sessions.
type CustomerRepository interface {
	GetByTagUID(ctx context.Context, conn persistence.Conn, tagUID uint64) (*domain.Customer, error)
	CreateSession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) error
	// GetBySession returns nil when no session matches.
	GetBySession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) (*domain.Customer, error)
	DeleteSession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) error
	UpdateInfo(ctx context.Context, conn persistence.Conn, customerID int64, info CustomerInfo) error
}

type customerRepository struct{}

// NewCustomerRepository constructs repository.
func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

const customerColumns = `c.id, c.user_tag_uid::text, c.name, c.balance, c.vouchers, c.pin,
        c.iban, c.account_name, c.email, c.donation`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		customer domain.Customer
		tagUID   *string
	)
	if err := row.Scan(
		&customer.ID,
		&tagUID,
		&customer.Name,
		&customer.Balance,
		&customer.Vouchers,
		&customer.PinHash,
		&customer.IBAN,
		&customer.AccountName,
		&customer.Email,
		&customer.Donation,
	); err != nil {
		return nil, err
	}
	uid, err := parseTagUID(tagUID)
	if err != nil {
		return nil, err
	}
	if uid != nil {
		customer.UserTagUID = *uid
	}
	return &customer, nil
}

func (r *customerRepository) GetByTagUID(ctx context.Context, conn persistence.Conn, tagUID uint64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer c WHERE c.user_tag_uid=$1::text::numeric`
	return scanCustomer(conn.QueryRow(ctx, query, tagUIDArg(tagUID)))
}

func (r *customerRepository) CreateSession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) error {
	const query = `INSERT INTO customer_session (id, customer) VALUES ($1::uuid, $2)`
	_, err := conn.Exec(ctx, query, sessionID, customerID)
	return err
}

func (r *customerRepository) GetBySession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) (*domain.Customer, error) {
	query := `
        SELECT ` + customerColumns + `
        FROM customer_session s
        JOIN customer c ON c.id = s.customer
        WHERE s.id=$1::uuid AND s.customer=$2`

	customer, err := scanCustomer(conn.QueryRow(ctx, query, sessionID, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return customer, err
}

func (r *customerRepository) DeleteSession(ctx context.Context, conn persistence.Conn, customerID int64, sessionID string) error {
	const query = `DELETE FROM customer_session WHERE id=$1::uuid AND customer=$2`

	cmd, err := conn.Exec(ctx, query, sessionID, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) UpdateInfo(ctx context.Context, conn persistence.Conn, customerID int64, info CustomerInfo) error {
	const query = `UPDATE customer SET iban=$1, account_name=$2, email=$3 WHERE id=$4`

	cmd, err := conn.Exec(ctx, query, info.IBAN, info.AccountName, info.Email, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
