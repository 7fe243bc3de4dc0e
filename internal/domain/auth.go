package domain

// SubjectType differentiates the principal variant a token is bound to.
type SubjectType string

const (
	SubjectTypeUser     SubjectType = "USER"
	SubjectTypeTerminal SubjectType = "TERMINAL"
	SubjectTypeCustomer SubjectType = "CUSTOMER"
)
