package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/auth"
	"github.com/stagepay/pos-core/internal/config"
	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/events"
	"github.com/stagepay/pos-core/internal/observability"
	"github.com/stagepay/pos-core/internal/persistence"
	"github.com/stagepay/pos-core/internal/repository"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// UserLogin is the result of a back-office login.
type UserLogin struct {
	User      *domain.CurrentUser
	Token     string
	ExpiresAt time.Time
}

// TerminalRegistration is the result of registering a terminal to a till.
type TerminalRegistration struct {
	Terminal  *domain.Terminal
	Token     string
	ExpiresAt time.Time
}

// CustomerLogin is the result of a customer login.
type CustomerLogin struct {
	Customer  *domain.Customer
	Token     string
	ExpiresAt time.Time
}

type empty = struct{}

// AuthService issues, resolves and revokes tokens for all principal variants.
// It is the UserResolver, TerminalResolver and CustomerResolver used by the
// authorization middlewares of every service.
type AuthService struct {
	pool       persistence.Pool
	users      repository.UserRepository
	tills      repository.TillRepository
	customers  repository.CustomerRepository
	tokenMgr   *auth.TokenManager
	limiter    *auth.LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	hasher     auth.Hasher
	txRetries  int
	authz      *Authorizer
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Pool         persistence.Pool
	UserRepo     repository.UserRepository
	TillRepo     repository.TillRepository
	CustomerRepo repository.CustomerRepository
	Limiter      *auth.LoginLimiter
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AuthService{
		pool:      deps.Pool,
		users:     deps.UserRepo,
		tills:     deps.TillRepo,
		customers: deps.CustomerRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, auth.TokenTTLs{
			User:     time.Duration(cfg.Auth.UserTokenTTLMinutes) * time.Minute,
			Terminal: time.Duration(cfg.Auth.TerminalTokenTTLMinutes) * time.Minute,
			Customer: time.Duration(cfg.Auth.CustomerTokenTTLMinutes) * time.Minute,
		}),
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		hasher:     auth.NewHasher(cfg.Auth.BcryptCost),
		txRetries:  cfg.Postgres.TxRetries,
	}
	s.authz = &Authorizer{
		Users:      s,
		Terminals:  s,
		Customers:  s,
		Privileges: deps.UserRepo,
		Logger:     logger,
		Metrics:    deps.Metrics,
	}

	return s
}

// Authorizer exposes the authorization collaborators for other services.
func (s *AuthService) Authorizer() *Authorizer {
	return s.authz
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// parseSession validates the token for subject. Any defect yields nil claims:
// an unusable token is simply not a principal.
func (s *AuthService) parseSession(token string, subject domain.SubjectType) *auth.Claims {
	claims, err := s.tokenMgr.ParseSubjectToken(token, subject)
	if err != nil {
		s.logger.Debug("rejected token", zap.String("subject", string(subject)), zap.Error(err))
		return nil
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		s.logger.Debug("rejected token session", zap.String("subject", string(subject)), zap.Error(err))
		return nil
	}
	return claims
}

// UserFromToken resolves a user token to the user scoped to the role the
// session was opened with.
func (s *AuthService) UserFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.CurrentUser, error) {
	claims := s.parseSession(token, domain.SubjectTypeUser)
	if claims == nil {
		return nil, nil
	}
	return s.users.GetCurrentUserBySession(ctx, conn, claims.SubjectID, claims.SessionID)
}

// TerminalFromToken resolves a terminal token to its till.
func (s *AuthService) TerminalFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.Terminal, error) {
	claims := s.parseSession(token, domain.SubjectTypeTerminal)
	if claims == nil {
		return nil, nil
	}
	till, err := s.tills.GetBySession(ctx, conn, claims.SubjectID, claims.SessionID)
	if err != nil || till == nil {
		return nil, err
	}
	return &domain.Terminal{Till: *till}, nil
}

// CustomerFromToken resolves a customer token to the customer account.
func (s *AuthService) CustomerFromToken(ctx context.Context, conn persistence.Conn, token string) (*domain.Customer, error) {
	claims := s.parseSession(token, domain.SubjectTypeCustomer)
	if claims == nil {
		return nil, nil
	}
	return s.customers.GetBySession(ctx, conn, claims.SubjectID, claims.SessionID)
}

// LoginUser authenticates a back-office user. The session is bound to roleID,
// or to the user's first role when roleID is nil.
func (s *AuthService) LoginUser(ctx context.Context, login, password string, roleID *int64) (*UserLogin, error) {
	if login == "" || password == "" {
		return nil, apperrors.NewValidationError("login and password required", nil)
	}
	if err := s.limiter.Allow(ctx, "user", login); err != nil {
		return nil, err
	}

	op := Chain[*UserLogin](func(ctx context.Context, call *Call) (*UserLogin, error) {
		user, err := s.users.GetByLogin(ctx, call.Conn, login)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("invalid credentials")
			}
			return nil, err
		}
		if !auth.Verify(user.PasswordHash, password) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}

		roles, err := s.users.ListRoles(ctx, call.Conn, user.ID)
		if err != nil {
			return nil, err
		}
		role, err := pickRole(roles, roleID)
		if err != nil {
			return nil, err
		}

		sessionID := uuid.NewString()
		if err := s.users.CreateSession(ctx, call.Conn, user.ID, role.ID, sessionID); err != nil {
			return nil, err
		}
		token, exp, err := s.tokenMgr.GenerateToken(domain.SubjectTypeUser, user.ID, sessionID)
		if err != nil {
			return nil, err
		}

		current := &domain.CurrentUser{
			User:           *user,
			ActiveRoleID:   role.ID,
			ActiveRoleName: role.Name,
			Privileges:     role.Privileges,
		}
		return &UserLogin{User: current, Token: token, ExpiresAt: exp}, nil
	}, WithTransaction[*UserLogin](s.pool))

	result, err := op(ctx, &Call{})
	if err != nil {
		return nil, err
	}
	s.limiter.Reset(ctx, "user", login)
	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn,
		events.Actor{Type: domain.SubjectTypeUser, ID: result.User.ID},
		events.UserSessionPayload{RoleID: result.User.ActiveRoleID, RoleName: result.User.ActiveRoleName}))
	return result, nil
}

func pickRole(roles []domain.UserRole, roleID *int64) (*domain.UserRole, error) {
	if len(roles) == 0 {
		return nil, apperrors.NewAccessDenied("user has no roles")
	}
	if roleID == nil {
		return &roles[0], nil
	}
	for i := range roles {
		if roles[i].ID == *roleID {
			return &roles[i], nil
		}
	}
	return nil, apperrors.NewAccessDenied("user does not have the requested role")
}

// LogoutUser revokes the session behind a user token.
func (s *AuthService) LogoutUser(ctx context.Context, token string) error {
	op := Chain[*domain.CurrentUser](func(ctx context.Context, call *Call) (*domain.CurrentUser, error) {
		claims := s.parseSession(call.Token, domain.SubjectTypeUser)
		if claims == nil {
			return nil, apperrors.NewUnauthorized("invalid user token")
		}
		if err := s.users.DeleteSession(ctx, call.Conn, call.User.ID, claims.SessionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("invalid user token")
			}
			return nil, err
		}
		return call.User, nil
	}, WithTransaction[*domain.CurrentUser](s.pool), RequireUser[*domain.CurrentUser](s.authz))

	user, err := op(ctx, &Call{Token: token})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventUserLoggedOut,
		events.Actor{Type: domain.SubjectTypeUser, ID: user.ID}, nil))
	return nil
}

// CurrentUser returns the user behind a user token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.CurrentUser, error) {
	op := Chain[*domain.CurrentUser](func(_ context.Context, call *Call) (*domain.CurrentUser, error) {
		return call.User, nil
	}, WithConnection[*domain.CurrentUser](s.pool), RequireUser[*domain.CurrentUser](s.authz))
	return op(ctx, &Call{Token: token})
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}

	op := Chain[empty](func(ctx context.Context, call *Call) (empty, error) {
		if !auth.Verify(call.User.PasswordHash, currentPassword) {
			return empty{}, apperrors.NewUnauthorized("invalid credentials")
		}
		hash, err := s.hasher.HashPassword(newPassword)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				return empty{}, apperrors.NewValidationError("new password too short", map[string]any{"min_length": auth.MinPasswordLength})
			}
			return empty{}, err
		}
		return empty{}, s.users.UpdatePassword(ctx, call.Conn, call.User.ID, hash)
	}, WithTransaction[empty](s.pool), RequireUser[empty](s.authz))

	_, err := op(ctx, &Call{Token: token})
	return err
}

// RegisterTerminal binds a terminal to the till owning registrationUUID and
// returns the terminal token. A till holds at most one terminal session.
func (s *AuthService) RegisterTerminal(ctx context.Context, registrationUUID string) (*TerminalRegistration, error) {
	if _, err := uuid.Parse(registrationUUID); err != nil {
		return nil, apperrors.NewUnauthorized("invalid registration code")
	}

	op := Chain[*TerminalRegistration](func(ctx context.Context, call *Call) (*TerminalRegistration, error) {
		till, err := s.tills.GetByRegistrationUUID(ctx, call.Conn, registrationUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("invalid registration code")
			}
			return nil, err
		}
		if till.SessionUUID != nil {
			return nil, apperrors.NewAccessDenied("till is already registered")
		}

		sessionID := uuid.NewString()
		if err := s.tills.SetSession(ctx, call.Conn, till.ID, &sessionID); err != nil {
			return nil, err
		}
		till.SessionUUID = &sessionID
		till.ActiveUserID = nil
		till.ActiveUserRoleID = nil

		token, exp, err := s.tokenMgr.GenerateToken(domain.SubjectTypeTerminal, till.ID, sessionID)
		if err != nil {
			return nil, err
		}
		return &TerminalRegistration{Terminal: &domain.Terminal{Till: *till}, Token: token, ExpiresAt: exp}, nil
	}, WithRetryableTransaction[*TerminalRegistration](s.pool, s.txRetries))

	result, err := op(ctx, &Call{})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventTerminalRegistered,
		events.Actor{Type: domain.SubjectTypeTerminal, ID: result.Terminal.Till.ID}, nil))
	return result, nil
}

// LogoutTerminal ends the terminal session and logs out its active user.
func (s *AuthService) LogoutTerminal(ctx context.Context, token string) error {
	op := Chain[int64](func(ctx context.Context, call *Call) (int64, error) {
		tillID := call.Terminal.Till.ID
		return tillID, s.tills.SetSession(ctx, call.Conn, tillID, nil)
	}, WithRetryableTransaction[int64](s.pool, s.txRetries), RequireTerminal[int64](s.authz))

	tillID, err := op(ctx, &Call{Token: token})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventTerminalLoggedOut,
		events.Actor{Type: domain.SubjectTypeTerminal, ID: tillID}, nil))
	return nil
}

// LoginCustomer authenticates a customer by wristband tag uid and PIN.
func (s *AuthService) LoginCustomer(ctx context.Context, userTagUID uint64, pin string) (*CustomerLogin, error) {
	if pin == "" {
		return nil, apperrors.NewValidationError("pin required", nil)
	}
	limiterKey := domain.FormatUserTagUID(userTagUID)
	if err := s.limiter.Allow(ctx, "customer", limiterKey); err != nil {
		return nil, err
	}

	op := Chain[*CustomerLogin](func(ctx context.Context, call *Call) (*CustomerLogin, error) {
		customer, err := s.customers.GetByTagUID(ctx, call.Conn, userTagUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("invalid user tag or pin")
			}
			return nil, err
		}
		if !auth.Verify(customer.PinHash, pin) {
			return nil, apperrors.NewUnauthorized("invalid user tag or pin")
		}

		sessionID := uuid.NewString()
		if err := s.customers.CreateSession(ctx, call.Conn, customer.ID, sessionID); err != nil {
			return nil, err
		}
		token, exp, err := s.tokenMgr.GenerateToken(domain.SubjectTypeCustomer, customer.ID, sessionID)
		if err != nil {
			return nil, err
		}
		return &CustomerLogin{Customer: customer, Token: token, ExpiresAt: exp}, nil
	}, WithTransaction[*CustomerLogin](s.pool))

	result, err := op(ctx, &Call{})
	if err != nil {
		return nil, err
	}
	s.limiter.Reset(ctx, "customer", limiterKey)
	s.publish(ctx, events.NewEvent(events.EventCustomerLoggedIn,
		events.Actor{Type: domain.SubjectTypeCustomer, ID: result.Customer.ID}, nil))
	return result, nil
}

// LogoutCustomer revokes the session behind a customer token.
func (s *AuthService) LogoutCustomer(ctx context.Context, token string) error {
	op := Chain[int64](func(ctx context.Context, call *Call) (int64, error) {
		claims := s.parseSession(call.Token, domain.SubjectTypeCustomer)
		if claims == nil {
			return 0, apperrors.NewUnauthorized("invalid customer token")
		}
		if err := s.customers.DeleteSession(ctx, call.Conn, call.Customer.ID, claims.SessionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, apperrors.NewUnauthorized("invalid customer token")
			}
			return 0, err
		}
		return call.Customer.ID, nil
	}, WithTransaction[int64](s.pool), RequireCustomer[int64](s.authz))

	customerID, err := op(ctx, &Call{Token: token})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventCustomerLoggedOut,
		events.Actor{Type: domain.SubjectTypeCustomer, ID: customerID}, nil))
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

// publishEvent runs after the transaction committed; a failing subscriber
// never undoes the operation.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
