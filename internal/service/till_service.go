package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/events"
	"github.com/stagepay/pos-core/internal/persistence"
	"github.com/stagepay/pos-core/internal/repository"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// TillService manages which user is logged in at a till.
type TillService struct {
	pool       persistence.Pool
	users      repository.UserRepository
	tills      repository.TillRepository
	authz      *Authorizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	txRetries  int
}

// TillDependencies encapsulates collaborators of the till service.
type TillDependencies struct {
	Pool       persistence.Pool
	UserRepo   repository.UserRepository
	TillRepo   repository.TillRepository
	Authorizer *Authorizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	TxRetries  int
}

// NewTillService creates the service.
func NewTillService(deps TillDependencies) *TillService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TillService{
		pool:       deps.Pool,
		users:      deps.UserRepo,
		tills:      deps.TillRepo,
		authz:      deps.Authorizer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		txRetries:  deps.TxRetries,
	}
}

// CheckUserLogin lists the roles the user owning userTagUID may log in with
// at the calling terminal.
func (s *TillService) CheckUserLogin(ctx context.Context, token string, userTagUID uint64) ([]domain.UserRole, error) {
	op := Chain[[]domain.UserRole](func(ctx context.Context, call *Call) ([]domain.UserRole, error) {
		user, err := s.users.GetByTagUID(ctx, call.Conn, userTagUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"user_tag_uid": userTagUID})
			}
			return nil, err
		}
		return s.users.ListRoles(ctx, call.Conn, user.ID)
	}, WithConnection[[]domain.UserRole](s.pool), RequireTerminal[[]domain.UserRole](s.authz))

	return op(ctx, &Call{Token: token})
}

// LoginUser logs the user owning userTagUID into the calling terminal's till
// under roleID. From then on terminal calls run with that role's privileges.
func (s *TillService) LoginUser(ctx context.Context, token string, userTagUID uint64, roleID int64) (*domain.CurrentUser, error) {
	type login struct {
		tillID int64
		user   *domain.CurrentUser
	}

	op := Chain[login](func(ctx context.Context, call *Call) (login, error) {
		user, err := s.users.GetByTagUID(ctx, call.Conn, userTagUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return login{}, apperrors.NewNotFound("user", map[string]any{"user_tag_uid": userTagUID})
			}
			return login{}, err
		}

		current, err := s.users.GetCurrentUser(ctx, call.Conn, user.ID, roleID)
		if err != nil {
			return login{}, err
		}
		if current == nil {
			return login{}, apperrors.NewAccessDenied("user does not have the requested role")
		}

		tillID := call.Terminal.Till.ID
		if err := s.tills.SetActiveUser(ctx, call.Conn, tillID, &current.ID, &current.ActiveRoleID); err != nil {
			return login{}, err
		}
		return login{tillID: tillID, user: current}, nil
	}, WithRetryableTransaction[login](s.pool, s.txRetries), RequireTerminal[login](s.authz))

	result, err := op(ctx, &Call{Token: token})
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventTillUserLoggedIn,
		events.Actor{Type: domain.SubjectTypeTerminal, ID: result.tillID},
		events.TillUserPayload{TillID: result.tillID, UserID: &result.user.ID, RoleID: &result.user.ActiveRoleID}))
	return result.user, nil
}

// LogoutUser logs the active user out of the calling terminal's till.
func (s *TillService) LogoutUser(ctx context.Context, token string) error {
	op := Chain[events.TillUserPayload](func(ctx context.Context, call *Call) (events.TillUserPayload, error) {
		till := call.Terminal.Till
		payload := events.TillUserPayload{TillID: till.ID, UserID: till.ActiveUserID, RoleID: till.ActiveUserRoleID}
		return payload, s.tills.SetActiveUser(ctx, call.Conn, till.ID, nil, nil)
	}, WithRetryableTransaction[events.TillUserPayload](s.pool, s.txRetries), RequireTerminal[events.TillUserPayload](s.authz))

	payload, err := op(ctx, &Call{Token: token})
	if err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventTillUserLoggedOut,
		events.Actor{Type: domain.SubjectTypeTerminal, ID: payload.TillID}, payload))
	return nil
}

// GetCurrentUser returns the user logged in at the calling terminal, or nil.
func (s *TillService) GetCurrentUser(ctx context.Context, token string) (*domain.CurrentUser, error) {
	op := Chain[*domain.CurrentUser](func(_ context.Context, call *Call) (*domain.CurrentUser, error) {
		return call.User, nil
	}, WithConnection[*domain.CurrentUser](s.pool), RequireTerminal[*domain.CurrentUser](s.authz))

	return op(ctx, &Call{Token: token})
}

// CheckPrivileges succeeds when the user logged in at the calling terminal
// holds at least one of privileges.
func (s *TillService) CheckPrivileges(ctx context.Context, token string, privileges ...domain.Privilege) error {
	for _, p := range privileges {
		if !p.Valid() {
			return apperrors.NewValidationError("unknown privilege", map[string]any{"privilege": p})
		}
	}

	op := Chain[empty](func(context.Context, *Call) (empty, error) {
		return empty{}, nil
	}, WithConnection[empty](s.pool), RequireTerminal[empty](s.authz, privileges...))

	_, err := op(ctx, &Call{Token: token})
	return err
}

// ListTills returns all tills. Admin only.
func (s *TillService) ListTills(ctx context.Context, token string) ([]domain.Till, error) {
	op := Chain[[]domain.Till](func(ctx context.Context, call *Call) ([]domain.Till, error) {
		return s.tills.List(ctx, call.Conn)
	}, WithTransaction[[]domain.Till](s.pool), RequireUser[[]domain.Till](s.authz, domain.PrivilegeAdmin))

	return op(ctx, &Call{Token: token})
}

// ForceLogoutUser clears the active user of any till. Admin only.
func (s *TillService) ForceLogoutUser(ctx context.Context, token string, tillID int64) error {
	op := Chain[events.Event](func(ctx context.Context, call *Call) (events.Event, error) {
		till, err := s.tills.GetByID(ctx, call.Conn, tillID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return events.Event{}, apperrors.NewNotFound("till", map[string]any{"till_id": tillID})
			}
			return events.Event{}, err
		}
		if err := s.tills.SetActiveUser(ctx, call.Conn, till.ID, nil, nil); err != nil {
			return events.Event{}, err
		}
		return events.NewEvent(events.EventTillUserLoggedOut,
			events.Actor{Type: domain.SubjectTypeUser, ID: call.User.ID},
			events.TillUserPayload{TillID: till.ID, UserID: till.ActiveUserID, RoleID: till.ActiveUserRoleID, Forced: true}), nil
	}, WithRetryableTransaction[events.Event](s.pool, s.txRetries), RequireUser[events.Event](s.authz, domain.PrivilegeAdmin))

	event, err := op(ctx, &Call{Token: token})
	if err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, s.logger, event)
	return nil
}
