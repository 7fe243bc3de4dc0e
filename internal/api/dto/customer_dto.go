package dto

import "github.com/stagepay/pos-core/internal/domain"

// CustomerLoginRequest payload for customer portal login. The tag uid is
// the hexadecimal string printed on the wristband.
type CustomerLoginRequest struct {
	UserTagUID string `json:"user_tag_uid"`
	Pin        string `json:"pin"`
}

// CustomerInfoRequest payload for payout details.
type CustomerInfoRequest struct {
	IBAN        *string `json:"iban"`
	AccountName *string `json:"account_name"`
	Email       *string `json:"email"`
}

// CustomerResponse describes a customer account.
type CustomerResponse struct {
	ID          int64    `json:"id"`
	UserTagUID  uint64   `json:"user_tag_uid"`
	UserTagHex  string   `json:"user_tag_uid_hex"`
	Name        *string  `json:"name,omitempty"`
	Balance     float64  `json:"balance"`
	Vouchers    int      `json:"vouchers"`
	IBAN        *string  `json:"iban"`
	AccountName *string  `json:"account_name"`
	Email       *string  `json:"email"`
	Donation    *float64 `json:"donation"`
}

// NewCustomerResponse maps a customer without its PIN hash.
func NewCustomerResponse(c *domain.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}
	return &CustomerResponse{
		ID:          c.ID,
		UserTagUID:  c.UserTagUID,
		UserTagHex:  domain.FormatUserTagUID(c.UserTagUID),
		Name:        c.Name,
		Balance:     c.Balance,
		Vouchers:    c.Vouchers,
		IBAN:        c.IBAN,
		AccountName: c.AccountName,
		Email:       c.Email,
		Donation:    c.Donation,
	}
}
