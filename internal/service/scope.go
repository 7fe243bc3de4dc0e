package service

import (
	"context"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/persistence"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// Call carries everything a service operation may need from its wrappers.
// Wrappers fill only the fields they resolve; operations read only the
// fields they use. Setting Conn up front makes every scoping wrapper reuse
// it instead of acquiring a second connection.
//
// Wrappers never modify the Call they receive; they hand a copy to the next
// operation.
type Call struct {
	Conn     persistence.Conn
	Token    string
	User     *domain.CurrentUser
	Terminal *domain.Terminal
	Customer *domain.Customer
}

// Operation is a service operation running inside a Call.
type Operation[T any] func(ctx context.Context, call *Call) (T, error)

// Middleware decorates an Operation.
type Middleware[T any] func(next Operation[T]) Operation[T]

// Chain wraps op with mws. The first middleware is the outermost one, so
// Chain(op, WithTransaction(pool), RequireUser(auth)) scopes the connection
// before the authorization check runs.
func Chain[T any](op Operation[T], mws ...Middleware[T]) Operation[T] {
	for i := len(mws) - 1; i >= 0; i-- {
		op = mws[i](op)
	}
	return op
}

// WithConnection runs the operation on a pooled connection that is released
// on every exit path.
func WithConnection[T any](pool persistence.Pool) Middleware[T] {
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			if call.Conn != nil {
				return next(ctx, call)
			}

			var zero T
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return zero, err
			}
			defer conn.Release()

			scoped := *call
			scoped.Conn = conn
			return next(ctx, &scoped)
		}
	}
}

// WithTransaction runs the operation inside a transaction on a pooled
// connection. A connection supplied by the caller is reused as is; its owner
// controls the transaction.
func WithTransaction[T any](pool persistence.Pool) Middleware[T] {
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			if call.Conn != nil {
				return next(ctx, call)
			}

			var zero T
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return zero, err
			}
			defer conn.Release()

			return inTransaction(ctx, conn, call, next)
		}
	}
}

// WithRetryableTransaction behaves like WithTransaction but replays the
// transaction when the database aborts it because of a serialization failure
// or deadlock. At most retries attempts are made; retries <= 0 uses
// persistence.DefaultTxRetries. Other errors are returned immediately.
func WithRetryableTransaction[T any](pool persistence.Pool, retries int) Middleware[T] {
	if retries <= 0 {
		retries = persistence.DefaultTxRetries
	}
	return func(next Operation[T]) Operation[T] {
		return func(ctx context.Context, call *Call) (T, error) {
			if call.Conn != nil {
				return next(ctx, call)
			}

			var zero T
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return zero, err
			}
			defer conn.Release()

			var lastErr error
			for attempt := 1; attempt <= retries; attempt++ {
				result, err := inTransaction(ctx, conn, call, next)
				if err == nil {
					return result, nil
				}
				if !persistence.IsRetryableConflict(err) {
					return zero, err
				}
				lastErr = err
			}
			return zero, apperrors.NewRetryExhausted(retries, lastErr)
		}
	}
}

func inTransaction[T any](ctx context.Context, conn persistence.Conn, call *Call, next Operation[T]) (result T, err error) {
	var zero T
	tx, err := conn.Begin(ctx)
	if err != nil {
		return zero, err
	}

	scoped := *call
	scoped.Conn = tx
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	result, err = next(ctx, &scoped)
	if err != nil {
		return zero, err
	}
	if err = tx.Commit(ctx); err != nil {
		return zero, err
	}
	return result, nil
}
