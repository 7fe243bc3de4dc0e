package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
)

// TillRepository handles persistence for tills and their terminal sessions.
type TillRepository interface {
	GetByID(ctx context.Context, conn persistence.Conn, id int64) (*domain.Till, error)
	// GetBySession returns nil when the till has no matching session.
	GetBySession(ctx context.Context, conn persistence.Conn, id int64, sessionUUID string) (*domain.Till, error)
	GetByRegistrationUUID(ctx context.Context, conn persistence.Conn, registrationUUID string) (*domain.Till, error)
	SetSession(ctx context.Context, conn persistence.Conn, id int64, sessionUUID *string) error
	SetActiveUser(ctx context.Context, conn persistence.Conn, id int64, userID, roleID *int64) error
	List(ctx context.Context, conn persistence.Conn) ([]domain.Till, error)
}

type tillRepository struct{}

// NewTillRepository instantiates the repository.
func NewTillRepository() TillRepository {
	return &tillRepository{}
}

const tillColumns = `id, name, description, registration_uuid::text, session_uuid::text,
        active_profile_id, active_user_id, active_user_role_id`

func scanTill(row pgx.Row) (*domain.Till, error) {
	var till domain.Till
	if err := row.Scan(
		&till.ID,
		&till.Name,
		&till.Description,
		&till.RegistrationUUID,
		&till.SessionUUID,
		&till.ActiveProfileID,
		&till.ActiveUserID,
		&till.ActiveUserRoleID,
	); err != nil {
		return nil, err
	}
	return &till, nil
}

func (r *tillRepository) GetByID(ctx context.Context, conn persistence.Conn, id int64) (*domain.Till, error) {
	query := `SELECT ` + tillColumns + ` FROM till WHERE id=$1`
	return scanTill(conn.QueryRow(ctx, query, id))
}

func (r *tillRepository) GetBySession(ctx context.Context, conn persistence.Conn, id int64, sessionUUID string) (*domain.Till, error) {
	query := `SELECT ` + tillColumns + ` FROM till WHERE id=$1 AND session_uuid=$2::uuid`
	till, err := scanTill(conn.QueryRow(ctx, query, id, sessionUUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return till, err
}

func (r *tillRepository) GetByRegistrationUUID(ctx context.Context, conn persistence.Conn, registrationUUID string) (*domain.Till, error) {
	query := `SELECT ` + tillColumns + ` FROM till WHERE registration_uuid=$1::uuid`
	return scanTill(conn.QueryRow(ctx, query, registrationUUID))
}

func (r *tillRepository) SetSession(ctx context.Context, conn persistence.Conn, id int64, sessionUUID *string) error {
	const query = `
        UPDATE till
        SET session_uuid=$1::uuid, active_user_id=NULL, active_user_role_id=NULL
        WHERE id=$2`

	cmd, err := conn.Exec(ctx, query, sessionUUID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tillRepository) SetActiveUser(ctx context.Context, conn persistence.Conn, id int64, userID, roleID *int64) error {
	const query = `UPDATE till SET active_user_id=$1, active_user_role_id=$2 WHERE id=$3`

	cmd, err := conn.Exec(ctx, query, userID, roleID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tillRepository) List(ctx context.Context, conn persistence.Conn) ([]domain.Till, error) {
	query := `SELECT ` + tillColumns + ` FROM till ORDER BY id`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Till
	for rows.Next() {
		till, err := scanTill(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *till)
	}
	return result, rows.Err()
}
