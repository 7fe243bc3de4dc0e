package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/observability"
	"github.com/stagepay/pos-core/internal/persistence"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// UserResolver resolves a back-office user token. It returns nil when the
// token does not identify a live user session.
type UserResolver interface {
	UserFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.CurrentUser, error)
}

// TerminalResolver resolves a terminal token. It returns nil when the token
// does not identify a registered terminal.
type TerminalResolver interface {
	TerminalFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.Terminal, error)
}

// CustomerResolver resolves a customer token. It returns nil when the token
// does not identify a live customer session.
type CustomerResolver interface {
	CustomerFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.Customer, error)
}

// PrivilegeStore looks up a user together with the privileges of one role.
type PrivilegeStore interface {
	GetCurrentUser(ctx context.Context, conn persistence.Conn, userID, roleID int64) (*domain.CurrentUser, error)
}

// Authorizer bundles the collaborators used by RequireUser, RequireTerminal
// and RequireCustomer.
type Authorizer struct {
	Users      UserResolver
	Terminals  TerminalResolver
	Customers  CustomerResolver
	Privileges PrivilegeStore
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

const (
	principalUser     = "user"
	principalTerminal = "terminal"
	principalCustomer = "customer"
)

func (a *Authorizer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Authorizer) wiringError(principal, format string, args ...any) error {
	err := apperrors.NewWiringError(format, args...)
	a.logger().Error("authorization wiring error", zap.String("principal", principal), zap.Error(err))
	a.Metrics.RecordAuthorization(principal, "wiring_error")
	return err
}

func (a *Authorizer) unauthorized(principal string) error {
	a.Metrics.RecordAuthorization(principal, "unauthorized")
	return apperrors.NewUnauthorized(fmt.Sprintf("invalid %s token", principal))
}

func (a *Authorizer) denied(principal, message string) error {
	a.Metrics.RecordAuthorization(principal, "access_denied")
	a.logger().Debug("access denied", zap.String("principal", principal), zap.String("reason", message))
	return apperrors.NewAccessDenied(message)
}

// RequireUser resolves the calling back-office user and, when privileges are
// given, admits the call if the user's active role grants at least one of
// them. A user already present on the Call is not looked up again. The
// wrapped operation receives the user in Call.User.
//
// RequireUser needs a connection in scope, so it must be chained after
// WithConnection, WithTransaction or WithRetryableTransaction.
func RequireUser[T any](a *Authorizer, privileges ...domain.Privilege) Middleware[T] {
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			var zero T
			if call.Conn == nil {
				return zero, a.wiringError(principalUser, "user authorization needs a connection in scope; chain a transaction middleware before RequireUser")
			}
			if call.Token == "" && call.User == nil {
				return zero, a.wiringError(principalUser, "token or user was not provided to service call")
			}

			user := call.User
			if user == nil {
				if a.Users == nil {
					return zero, a.wiringError(principalUser, "no user resolver configured")
				}
				resolved, err := a.Users.UserFromToken(ctx, call.Conn, call.Token)
				if err != nil {
					return zero, err
				}
				user = resolved
			}
			if user == nil {
				return zero, a.unauthorized(principalUser)
			}

			// Any one of the listed privileges admits the call.
			if len(privileges) > 0 && !user.HasAnyPrivilege(privileges...) {
				return zero, a.denied(principalUser, fmt.Sprintf("user does not have any of the required privileges: %v", privileges))
			}

			a.Metrics.RecordAuthorization(principalUser, "granted")
			scoped := *call
			scoped.User = user
			return next(ctx, &scoped)
		}
	}
}

// RequireCustomer resolves the calling customer. A customer already present
// on the Call is not looked up again. The wrapped operation receives the
// customer in Call.Customer.
func RequireCustomer[T any](a *Authorizer) Middleware[T] {
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			var zero T
			if call.Conn == nil {
				return zero, a.wiringError(principalCustomer, "customer authorization needs a connection in scope; chain a transaction middleware before RequireCustomer")
			}
			if call.Token == "" && call.Customer == nil {
				return zero, a.wiringError(principalCustomer, "token or customer was not provided to service call")
			}

			customer := call.Customer
			if customer == nil {
				if a.Customers == nil {
					return zero, a.wiringError(principalCustomer, "no customer resolver configured")
				}
				resolved, err := a.Customers.CustomerFromToken(ctx, call.Conn, call.Token)
				if err != nil {
					return zero, err
				}
				customer = resolved
			}
			if customer == nil {
				return zero, a.unauthorized(principalCustomer)
			}

			a.Metrics.RecordAuthorization(principalCustomer, "granted")
			scoped := *call
			scoped.Customer = customer
			return next(ctx, &scoped)
		}
	}
}

// RequireTerminal resolves the calling terminal and the user currently
// logged in at its till, with the privileges of the till's active role only.
// When privileges are given, the call is denied unless a user is logged in
// and that role grants at least one of them. The wrapped operation receives
// Call.Terminal and Call.User; Call.User is nil when nobody is logged in.
func RequireTerminal[T any](a *Authorizer, privileges ...domain.Privilege) Middleware[T] {
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			var zero T
			if call.Conn == nil {
				return zero, a.wiringError(principalTerminal, "terminal authorization needs a connection in scope; chain a transaction middleware before RequireTerminal")
			}
			if call.Token == "" && call.Terminal == nil {
				return zero, a.wiringError(principalTerminal, "token or terminal was not provided to service call")
			}
			if a.Privileges == nil {
				return zero, a.wiringError(principalTerminal, "no privilege store configured")
			}

			terminal := call.Terminal
			if terminal == nil {
				if a.Terminals == nil {
					return zero, a.wiringError(principalTerminal, "no terminal resolver configured")
				}
				resolved, err := a.Terminals.TerminalFromToken(ctx, call.Conn, call.Token)
				if err != nil {
					return zero, err
				}
				terminal = resolved
			}
			if terminal == nil {
				return zero, a.unauthorized(principalTerminal)
			}

			var loggedIn *domain.CurrentUser
			till := terminal.Till
			if till.HasActiveUser() {
				user, err := a.Privileges.GetCurrentUser(ctx, call.Conn, *till.ActiveUserID, *till.ActiveUserRoleID)
				if err != nil {
					return zero, err
				}
				loggedIn = user
			}

			if len(privileges) > 0 {
				if till.ActiveUserID == nil || loggedIn == nil {
					return zero, a.denied(principalTerminal, fmt.Sprintf("no user is logged into this terminal but the following privileges are required: %v", privileges))
				}
				if !loggedIn.HasAnyPrivilege(privileges...) {
					return zero, a.denied(principalTerminal, fmt.Sprintf("user does not have any of the required privileges: %v", privileges))
				}
			}

			a.Metrics.RecordAuthorization(principalTerminal, "granted")
			scoped := *call
			scoped.Terminal = terminal
			scoped.User = loggedIn
			return next(ctx, &scoped)
		}
	}
}
