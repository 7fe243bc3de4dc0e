package service

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
	"github.com/stagepay/pos-core/internal/repository"
)

type userSession struct {
	userID int64
	roleID int64
}

// memUsers keeps users, their roles and sessions in maps.
type memUsers struct {
	users    map[int64]*domain.User
	roles    map[int64][]domain.UserRole
	sessions map[string]userSession
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:    map[int64]*domain.User{},
		roles:    map[int64][]domain.UserRole{},
		sessions: map[string]userSession{},
	}
}

var _ repository.UserRepository = (*memUsers)(nil)

func (m *memUsers) GetByID(_ context.Context, _ persistence.Conn, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByLogin(ctx context.Context, conn persistence.Conn, login string) (*domain.User, error) {
	for id, u := range m.users {
		if u.Login == login {
			return m.GetByID(ctx, conn, id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByTagUID(ctx context.Context, conn persistence.Conn, tagUID uint64) (*domain.User, error) {
	for id, u := range m.users {
		if u.UserTagUID != nil && *u.UserTagUID == tagUID {
			return m.GetByID(ctx, conn, id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) UpdatePassword(_ context.Context, _ persistence.Conn, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (m *memUsers) ListRoles(_ context.Context, _ persistence.Conn, userID int64) ([]domain.UserRole, error) {
	roles := append([]domain.UserRole{}, m.roles[userID]...)
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m *memUsers) GetCurrentUser(_ context.Context, _ persistence.Conn, userID, roleID int64) (*domain.CurrentUser, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	for _, role := range m.roles[userID] {
		if role.ID == roleID {
			return &domain.CurrentUser{User: *u, ActiveRoleID: role.ID, ActiveRoleName: role.Name, Privileges: role.Privileges}, nil
		}
	}
	return nil, nil
}

func (m *memUsers) CreateSession(_ context.Context, _ persistence.Conn, userID, roleID int64, sessionID string) error {
	m.sessions[sessionID] = userSession{userID: userID, roleID: roleID}
	return nil
}

func (m *memUsers) GetCurrentUserBySession(ctx context.Context, conn persistence.Conn, userID int64, sessionID string) (*domain.CurrentUser, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.userID != userID {
		return nil, nil
	}
	return m.GetCurrentUser(ctx, conn, s.userID, s.roleID)
}

func (m *memUsers) DeleteSession(_ context.Context, _ persistence.Conn, userID int64, sessionID string) error {
	s, ok := m.sessions[sessionID]
	if !ok || s.userID != userID {
		return pgx.ErrNoRows
	}
	delete(m.sessions, sessionID)
	return nil
}

// memTills keeps tills by id.
type memTills struct {
	tills map[int64]*domain.Till
}

var _ repository.TillRepository = (*memTills)(nil)

func (m *memTills) GetByID(_ context.Context, _ persistence.Conn, id int64) (*domain.Till, error) {
	if t, ok := m.tills[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memTills) GetBySession(ctx context.Context, conn persistence.Conn, id int64, sessionUUID string) (*domain.Till, error) {
	t, ok := m.tills[id]
	if !ok || t.SessionUUID == nil || *t.SessionUUID != sessionUUID {
		return nil, nil
	}
	return m.GetByID(ctx, conn, id)
}

func (m *memTills) GetByRegistrationUUID(ctx context.Context, conn persistence.Conn, registrationUUID string) (*domain.Till, error) {
	for id, t := range m.tills {
		if t.RegistrationUUID != nil && *t.RegistrationUUID == registrationUUID {
			return m.GetByID(ctx, conn, id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTills) SetSession(_ context.Context, _ persistence.Conn, id int64, sessionUUID *string) error {
	t, ok := m.tills[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.SessionUUID = sessionUUID
	t.ActiveUserID = nil
	t.ActiveUserRoleID = nil
	return nil
}

func (m *memTills) SetActiveUser(_ context.Context, _ persistence.Conn, id int64, userID, roleID *int64) error {
	t, ok := m.tills[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.ActiveUserID = userID
	t.ActiveUserRoleID = roleID
	return nil
}

func (m *memTills) List(_ context.Context, _ persistence.Conn) ([]domain.Till, error) {
	out := make([]domain.Till, 0, len(m.tills))
	for _, t := range m.tills {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type customerSession struct {
	customerID int64
}

// memCustomers keeps customers by id.
type memCustomers struct {
	customers map[int64]*domain.Customer
	sessions  map[string]customerSession
}

var _ repository.CustomerRepository = (*memCustomers)(nil)

func (m *memCustomers) GetByTagUID(_ context.Context, _ persistence.Conn, tagUID uint64) (*domain.Customer, error) {
	for _, c := range m.customers {
		if c.UserTagUID == tagUID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memCustomers) CreateSession(_ context.Context, _ persistence.Conn, customerID int64, sessionID string) error {
	m.sessions[sessionID] = customerSession{customerID: customerID}
	return nil
}

func (m *memCustomers) GetBySession(_ context.Context, _ persistence.Conn, customerID int64, sessionID string) (*domain.Customer, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.customerID != customerID {
		return nil, nil
	}
	copied := *m.customers[customerID]
	return &copied, nil
}

func (m *memCustomers) DeleteSession(_ context.Context, _ persistence.Conn, customerID int64, sessionID string) error {
	s, ok := m.sessions[sessionID]
	if !ok || s.customerID != customerID {
		return pgx.ErrNoRows
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *memCustomers) UpdateInfo(_ context.Context, _ persistence.Conn, customerID int64, info repository.CustomerInfo) error {
	c, ok := m.customers[customerID]
	if !ok {
		return pgx.ErrNoRows
	}
	c.IBAN = info.IBAN
	c.AccountName = info.AccountName
	c.Email = info.Email
	return nil
}
