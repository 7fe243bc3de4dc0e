package service

import (
	"context"
	"testing"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/events"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

func TestTillUserLoginFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	terminal := f.registerTerminal(t)

	roles, err := f.till.CheckUserLogin(ctx, terminal, 0xcafe)
	if err != nil {
		t.Fatalf("CheckUserLogin() error: %v", err)
	}
	if len(roles) != 2 || roles[0].ID != 1 || roles[1].ID != 2 {
		t.Fatalf("unexpected roles: %+v", roles)
	}

	if err := f.till.CheckPrivileges(ctx, terminal, domain.PrivilegeCashHandling); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied without logged-in user, got %v", err)
	}

	user, err := f.till.LoginUser(ctx, terminal, 0xcafe, 2)
	if err != nil {
		t.Fatalf("LoginUser() error: %v", err)
	}
	if user.ID != 7 || user.ActiveRoleID != 2 {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := f.till.CheckPrivileges(ctx, terminal, domain.PrivilegeCashHandling); err != nil {
		t.Fatalf("CheckPrivileges() error: %v", err)
	}
	if err := f.till.CheckPrivileges(ctx, terminal, domain.PrivilegeAdmin); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied for admin, got %v", err)
	}

	current, err := f.till.GetCurrentUser(ctx, terminal)
	if err != nil || current == nil || current.ID != 7 {
		t.Fatalf("GetCurrentUser() = %+v, %v", current, err)
	}

	if err := f.till.LogoutUser(ctx, terminal); err != nil {
		t.Fatalf("LogoutUser() error: %v", err)
	}
	current, err = f.till.GetCurrentUser(ctx, terminal)
	if err != nil || current != nil {
		t.Fatalf("expected nobody logged in, got %+v, %v", current, err)
	}

	want := []events.EventType{events.EventTerminalRegistered, events.EventTillUserLoggedIn, events.EventTillUserLoggedOut}
	got := f.recorded.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestTillLoginRoleScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	terminal := f.registerTerminal(t)

	if _, err := f.till.LoginUser(ctx, terminal, 0xcafe, 1); err != nil {
		t.Fatalf("LoginUser() error: %v", err)
	}
	// cash_handling belongs to the cashier role, not the active viewer role.
	if err := f.till.CheckPrivileges(ctx, terminal, domain.PrivilegeCashHandling); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied, got %v", err)
	}

	if _, err := f.till.LoginUser(ctx, terminal, 0xcafe, 3); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied for foreign role, got %v", err)
	}
	if _, err := f.till.LoginUser(ctx, terminal, 0xdead, 1); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown tag, got %v", err)
	}
}

func TestTillCheckPrivilegesValidates(t *testing.T) {
	f := newFixture(t)
	terminal := f.registerTerminal(t)

	err := f.till.CheckPrivileges(context.Background(), terminal, domain.Privilege("root"))
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTillAdminOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	terminal := f.registerTerminal(t)
	if _, err := f.till.LoginUser(ctx, terminal, 0xcafe, 2); err != nil {
		t.Fatalf("LoginUser() error: %v", err)
	}

	cashier := f.loginUser(t, "cashier", int64Ptr(2)).Token
	if _, err := f.till.ListTills(ctx, cashier); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied for cashier, got %v", err)
	}
	if err := f.till.ForceLogoutUser(ctx, cashier, 2); !apperrors.IsAccessDenied(err) {
		t.Fatalf("expected access denied for cashier, got %v", err)
	}

	admin := f.loginUser(t, "admin", nil).Token
	tills, err := f.till.ListTills(ctx, admin)
	if err != nil || len(tills) != 1 || !tills[0].HasActiveUser() {
		t.Fatalf("ListTills() = %+v, %v", tills, err)
	}

	if err := f.till.ForceLogoutUser(ctx, admin, 2); err != nil {
		t.Fatalf("ForceLogoutUser() error: %v", err)
	}
	if f.tills.tills[2].HasActiveUser() {
		t.Fatalf("till user not logged out")
	}
	if err := f.till.ForceLogoutUser(ctx, admin, 99); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := f.till.ListTills(ctx, terminal); !apperrors.IsUnauthorized(err) {
		t.Fatalf("terminal token accepted as user token: %v", err)
	}
}
