package domain

import "time"

// User is a back-office or cashier account.
type User struct {
	ID                 int64
	Login              string
	DisplayName        string
	Description        *string
	PasswordHash       *string
	UserTagUID         *uint64
	TransportAccountID *int64
	CashierAccountID   *int64
	CreatedAt          time.Time
}

// UserRole groups privileges a user may operate under.
type UserRole struct {
	ID         int64
	Name       string
	Privileges []Privilege
}

// CurrentUser is a user scoped to exactly one active role.
type CurrentUser struct {
	User
	ActiveRoleID   int64
	ActiveRoleName string
	Privileges     []Privilege
}

// HasAnyPrivilege reports whether the active role grants one of required.
func (u *CurrentUser) HasAnyPrivilege(required ...Privilege) bool {
	if u == nil {
		return false
	}
	return HasAnyPrivilege(u.Privileges, required)
}
