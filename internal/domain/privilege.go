package domain

// Privilege is a named capability granted through a user role.
type Privilege string

const (
	PrivilegeAdmin                   Privilege = "admin"
	PrivilegeFinanzorga              Privilege = "finanzorga"
	PrivilegeCashHandling            Privilege = "cash_handling"
	PrivilegeCanBookOrders           Privilege = "can_book_orders"
	PrivilegeOrderManagement         Privilege = "order_management"
	PrivilegeGrantFreeTickets        Privilege = "grant_free_tickets"
	PrivilegeGrantVouchers           Privilege = "grant_vouchers"
	PrivilegeSupervisedTerminalLogin Privilege = "supervised_terminal_login"
)

var knownPrivileges = map[Privilege]struct{}{
	PrivilegeAdmin:                   {},
	PrivilegeFinanzorga:              {},
	PrivilegeCashHandling:            {},
	PrivilegeCanBookOrders:           {},
	PrivilegeOrderManagement:         {},
	PrivilegeGrantFreeTickets:        {},
	PrivilegeGrantVouchers:           {},
	PrivilegeSupervisedTerminalLogin: {},
}

// Valid reports whether p is one of the defined privileges.
func (p Privilege) Valid() bool {
	_, ok := knownPrivileges[p]
	return ok
}

// HasAnyPrivilege reports whether granted contains at least one of required.
// An empty required set is always satisfied.
func HasAnyPrivilege(granted, required []Privilege) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[Privilege]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}
