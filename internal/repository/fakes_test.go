package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: got %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(r.values[i])
		if target.Kind() == reflect.Pointer && v.Kind() != reflect.Pointer {
			ptr := reflect.New(target.Type().Elem())
			ptr.Elem().Set(v)
			v = ptr
		}
		target.Set(v)
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeConn answers QueryRow with the first row whose key is contained in the SQL.
type fakeConn struct {
	rows         map[string]fakeRow
	rowsAffected int64
	execs        []execCall
	queried      []execCall
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", c.rowsAffected)), nil
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("query not supported by fakeConn")
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.queried = append(c.queried, execCall{sql: sql, args: args})
	for key, row := range c.rows {
		if strings.Contains(sql, key) {
			return row
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	return nil, fmt.Errorf("begin not supported by fakeConn")
}
