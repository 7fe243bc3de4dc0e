package domain

// Customer is an end-customer account identified by a wristband tag.
type Customer struct {
	ID          int64
	UserTagUID  uint64
	Name        *string
	Balance     float64
	Vouchers    int
	PinHash     *string
	IBAN        *string
	AccountName *string
	Email       *string
	Donation    *float64
}
