package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
)

// UserRepository defines persistence access for users, roles and user sessions.
type UserRepository interface {
	GetByLogin(ctx context.Context, conn persistence.Conn, login string) (*domain.User, error)
	GetByTagUID(ctx context.Context, conn persistence.Conn, tagUID uint64) (*domain.User, error)
	UpdatePassword(ctx context.Context, conn persistence.Conn, id int64, passwordHash string) error
	ListRoles(ctx context.Context, conn persistence.Conn, userID int64) ([]domain.UserRole, error)
	// GetCurrentUser returns the user joined with the privileges of exactly
	// roleID. It returns nil when the user does not hold that role.
	GetCurrentUser(ctx context.Context, conn persistence.Conn, userID, roleID int64) (*domain.CurrentUser, error)
	CreateSession(ctx context.Context, conn persistence.Conn, userID, roleID int64, sessionID string) error
	// GetCurrentUserBySession resolves a session to its user scoped to the
	// role the session was opened with. It returns nil when no session matches.
	GetCurrentUserBySession(ctx context.Context, conn persistence.Conn, userID int64, sessionID string) (*domain.CurrentUser, error)
	DeleteSession(ctx context.Context, conn persistence.Conn, userID int64, sessionID string) error
}

type userRepository struct{}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `usr.id, usr.login, usr.display_name, usr.description, usr.password,
        usr.user_tag_uid::text, usr.transport_account_id, usr.cashier_account_id, usr.created_at`

func scanUser(row pgx.Row, extra ...any) (*domain.User, error) {
	var (
		user   domain.User
		tagUID *string
	)
	dest := []any{
		&user.ID,
		&user.Login,
		&user.DisplayName,
		&user.Description,
		&user.PasswordHash,
		&tagUID,
		&user.TransportAccountID,
		&user.CashierAccountID,
		&user.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	uid, err := parseTagUID(tagUID)
	if err != nil {
		return nil, err
	}
	user.UserTagUID = uid
	return &user, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, conn persistence.Conn, login string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM usr WHERE usr.login=$1`
	return scanUser(conn.QueryRow(ctx, query, login))
}

func (r *userRepository) GetByTagUID(ctx context.Context, conn persistence.Conn, tagUID uint64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM usr WHERE usr.user_tag_uid=$1::text::numeric`
	return scanUser(conn.QueryRow(ctx, query, tagUIDArg(tagUID)))
}

func (r *userRepository) UpdatePassword(ctx context.Context, conn persistence.Conn, id int64, passwordHash string) error {
	const query = `UPDATE usr SET password=$1 WHERE id=$2`

	cmd, err := conn.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) ListRoles(ctx context.Context, conn persistence.Conn, userID int64) ([]domain.UserRole, error) {
	const query = `
        SELECT urwp.id, urwp.name, urwp.privileges
        FROM user_to_role utr
        JOIN user_role_with_privileges urwp ON urwp.id = utr.role_id
        WHERE utr.user_id=$1
        ORDER BY urwp.id`

	rows, err := conn.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserRole
	for rows.Next() {
		var (
			role       domain.UserRole
			privileges []string
		)
		if err := rows.Scan(&role.ID, &role.Name, &privileges); err != nil {
			return nil, err
		}
		role.Privileges = toPrivileges(privileges)
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *userRepository) GetCurrentUser(ctx context.Context, conn persistence.Conn, userID, roleID int64) (*domain.CurrentUser, error) {
	query := `
        SELECT ` + userColumns + `, urwp.privileges, urwp.id, urwp.name
        FROM usr
        JOIN user_to_role utr ON utr.user_id = usr.id
        JOIN user_role_with_privileges urwp ON urwp.id = utr.role_id
        WHERE usr.id=$1 AND utr.role_id=$2`

	return scanCurrentUser(conn.QueryRow(ctx, query, userID, roleID))
}

func (r *userRepository) CreateSession(ctx context.Context, conn persistence.Conn, userID, roleID int64, sessionID string) error {
	const query = `INSERT INTO usr_session (id, usr, role_id) VALUES ($1::uuid, $2, $3)`
	_, err := conn.Exec(ctx, query, sessionID, userID, roleID)
	return err
}

func (r *userRepository) GetCurrentUserBySession(ctx context.Context, conn persistence.Conn, userID int64, sessionID string) (*domain.CurrentUser, error) {
	query := `
        SELECT ` + userColumns + `, urwp.privileges, urwp.id, urwp.name
        FROM usr_session s
        JOIN usr ON usr.id = s.usr
        JOIN user_to_role utr ON utr.user_id = usr.id AND utr.role_id = s.role_id
        JOIN user_role_with_privileges urwp ON urwp.id = s.role_id
        WHERE s.id=$1::uuid AND s.usr=$2`

	return scanCurrentUser(conn.QueryRow(ctx, query, sessionID, userID))
}

func (r *userRepository) DeleteSession(ctx context.Context, conn persistence.Conn, userID int64, sessionID string) error {
	const query = `DELETE FROM usr_session WHERE id=$1::uuid AND usr=$2`

	cmd, err := conn.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCurrentUser(row pgx.Row) (*domain.CurrentUser, error) {
	var (
		current    domain.CurrentUser
		privileges []string
	)
	user, err := scanUser(row, &privileges, &current.ActiveRoleID, &current.ActiveRoleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	current.User = *user
	current.Privileges = toPrivileges(privileges)
	return &current, nil
}

func toPrivileges(raw []string) []domain.Privilege {
	out := make([]domain.Privilege, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Privilege(p))
	}
	return out
}
