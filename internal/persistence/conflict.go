package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTxRetries is the attempt budget of a retryable transaction.
const DefaultTxRetries = 3

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsRetryableConflict reports whether err is a transaction abort caused by
// concurrent writers, i.e. a serialization failure or a detected deadlock.
func IsRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	default:
		return false
	}
}
