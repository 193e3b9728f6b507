package mocks

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	kpool "github.com/weftline/weftline/pkg/conn/db/postgres/pool"
)

// hand mocks of the pool interfaces, so repositories can be tested
// without a live database.

type Pool struct {
	Impl struct {
		Begin   func(ctx context.Context) (kpool.Tx, error)
		Acquire func(ctx context.Context) (kpool.Conn, error)
	}

	Calls struct {
		Begin   uint
		Acquire uint
	}
}

var _ kpool.Pool = &Pool{}

func NewPool() *Pool {
	return &Pool{}
}

func (m *Pool) Begin(ctx context.Context) (kpool.Tx, error) {
	m.Calls.Begin += 1
	if m.Impl.Begin != nil {
		return m.Impl.Begin(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Pool) Acquire(ctx context.Context) (kpool.Conn, error) {
	m.Calls.Acquire += 1
	if m.Impl.Acquire != nil {
		return m.Impl.Acquire(ctx)
	}
	panic(errors.New("it should not be called"))
}

type Tx struct {
	Impl struct {
		Begin    func(ctx context.Context) (kpool.Tx, error)
		Commit   func(ctx context.Context) error
		Rollback func(ctx context.Context) error
		Exec     func(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
		Query    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
		QueryRow func(ctx context.Context, sql string, args ...interface{}) pgx.Row
	}

	Calls struct {
		Begin    uint
		Commit   uint
		Rollback uint
		Exec     []string
		Query    []string
		QueryRow []string
	}
}

var _ kpool.Tx = &Tx{}

func NewTx() *Tx {
	return &Tx{}
}

func (m *Tx) Begin(ctx context.Context) (kpool.Tx, error) {
	m.Calls.Begin += 1
	if m.Impl.Begin != nil {
		return m.Impl.Begin(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *Tx) Commit(ctx context.Context) error {
	m.Calls.Commit += 1
	if m.Impl.Commit != nil {
		return m.Impl.Commit(ctx)
	}
	panic(errors.New("it should not be called"))
}

// Rollback is deferred unconditionally by repositories,
// so an unset Impl is a no-op rather than a panic.
func (m *Tx) Rollback(ctx context.Context) error {
	m.Calls.Rollback += 1
	if m.Impl.Rollback != nil {
		return m.Impl.Rollback(ctx)
	}
	return nil
}

func (m *Tx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	m.Calls.Exec = append(m.Calls.Exec, sql)
	if m.Impl.Exec != nil {
		return m.Impl.Exec(ctx, sql, arguments...)
	}
	panic(errors.New("it should not be called"))
}

func (m *Tx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	m.Calls.Query = append(m.Calls.Query, sql)
	if m.Impl.Query != nil {
		return m.Impl.Query(ctx, sql, args...)
	}
	panic(errors.New("it should not be called"))
}

func (m *Tx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	m.Calls.QueryRow = append(m.Calls.QueryRow, sql)
	if m.Impl.QueryRow != nil {
		return m.Impl.QueryRow(ctx, sql, args...)
	}
	panic(errors.New("it should not be called"))
}

type Row struct {
	Impl struct {
		Scan func(dest ...interface{}) error
	}
}

var _ pgx.Row = &Row{}

func NewRow(scan func(dest ...interface{}) error) *Row {
	row := &Row{}
	row.Impl.Scan = scan
	return row
}

func (m *Row) Scan(dest ...interface{}) error {
	if m.Impl.Scan != nil {
		return m.Impl.Scan(dest...)
	}
	panic(errors.New("it should not be called"))
}
