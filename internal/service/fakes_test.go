package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
)

// fakeTx only supports the transaction lifecycle; queries go through the
// fake resolvers in these tests.
type fakeTx struct {
	pgx.Tx
	conn       *fakeConn
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	t.conn.commits++
	return t.conn.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
		t.conn.rollbacks++
	}
	return nil
}

type fakeConn struct {
	begins    int
	commits   int
	rollbacks int
	releases  int
	commitErr error
	txs       []*fakeTx
}

func (c *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec not supported by fakeConn")
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not supported by fakeConn")
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	c.begins++
	tx := &fakeTx{conn: c}
	c.txs = append(c.txs, tx)
	return tx, nil
}

func (c *fakeConn) Release() {
	c.releases++
}

type fakePool struct {
	conn     *fakeConn
	acquires int
	err      error
}

func newFakePool() *fakePool {
	return &fakePool{conn: &fakeConn{}}
}

func (p *fakePool) Acquire(context.Context) (persistence.PooledConn, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.acquires++
	return p.conn, nil
}

type fakeResolver struct {
	users     map[string]*domain.CurrentUser
	terminals map[string]*domain.Terminal
	customers map[string]*domain.Customer
	lookups   int
	err       error
}

func (r *fakeResolver) UserFromToken(_ context.Context, _ persistence.Conn, token string) (*domain.CurrentUser, error) {
	r.lookups++
	return r.users[token], r.err
}

func (r *fakeResolver) TerminalFromToken(_ context.Context, _ persistence.Conn, token string) (*domain.Terminal, error) {
	r.lookups++
	return r.terminals[token], r.err
}

func (r *fakeResolver) CustomerFromToken(_ context.Context, _ persistence.Conn, token string) (*domain.Customer, error) {
	r.lookups++
	return r.customers[token], r.err
}

type roleKey struct {
	userID int64
	roleID int64
}

// fakePrivileges mirrors the user/role/privilege join: a row only exists for
// a user together with a role assigned to them.
type fakePrivileges struct {
	rows    map[roleKey]*domain.CurrentUser
	queries []roleKey
}

func (p *fakePrivileges) GetCurrentUser(_ context.Context, _ persistence.Conn, userID, roleID int64) (*domain.CurrentUser, error) {
	p.queries = append(p.queries, roleKey{userID: userID, roleID: roleID})
	return p.rows[roleKey{userID: userID, roleID: roleID}], nil
}

func conflictError(code string) error {
	return fmt.Errorf("update till: %w", &pgconn.PgError{Code: code, Message: "could not serialize access"})
}

func int64Ptr(v int64) *int64 {
	return &v
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// user7 holds cash_handling under role 2 only.
func user7Privileges() *fakePrivileges {
	return &fakePrivileges{rows: map[roleKey]*domain.CurrentUser{
		{userID: 7, roleID: 1}: {
			User:           domain.User{ID: 7, Login: "cashier"},
			ActiveRoleID:   1,
			ActiveRoleName: "viewer",
		},
		{userID: 7, roleID: 2}: {
			User:           domain.User{ID: 7, Login: "cashier"},
			ActiveRoleID:   2,
			ActiveRoleName: "cashier",
			Privileges:     []domain.Privilege{domain.PrivilegeCashHandling},
		},
	}}
}
