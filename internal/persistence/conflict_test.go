package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRetryableConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "wrapped deadlock", err: fmt.Errorf("book order: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryableConflict(tc.err); got != tc.want {
				t.Fatalf("IsRetryableConflict(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
