package repository

import (
	"context"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type result struct {
	rows [][]any
	err  error
}

// fakeDB answers sqlc queries by their "-- name:" header. Each call pops the
// next queued result for that query; an empty queue means no rows.
type fakeDB struct {
	results map[string][]result
	calls   []string
	args    map[string][]any
	sql     map[string]string
}

func newFakeDB() *fakeDB {
	return &fakeDB{results: map[string][]result{}, args: map[string][]any{}, sql: map[string]string{}}
}

func (f *fakeDB) queue(name string, r result) {
	f.results[name] = append(f.results[name], r)
}

func (f *fakeDB) next(sql string, args []any) (string, result) {
	name := queryName(sql)
	f.calls = append(f.calls, name)
	f.args[name] = args
	f.sql[name] = sql
	q := f.results[name]
	if len(q) == 0 {
		return name, result{}
	}
	f.results[name] = q[1:]
	return name, q[0]
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	_, r := f.next(sql, args)
	return pgconn.NewCommandTag("OK"), r.err
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	_, r := f.next(sql, args)
	if r.err != nil {
		return nil, r.err
	}
	return &fakeRows{rows: r.rows, i: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	_, r := f.next(sql, args)
	if r.err != nil {
		return simpleRow{err: r.err}
	}
	if len(r.rows) == 0 {
		return simpleRow{err: pgx.ErrNoRows}
	}
	return simpleRow{vals: r.rows[0]}
}

func (f *fakeDB) called(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func queryName(sql string) string {
	sql = strings.TrimPrefix(sql, "-- name: ")
	name, _, _ := strings.Cut(sql, " ")
	return name
}

type simpleRow struct {
	vals []any
	err  error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

type fakeRows struct {
	pgx.Rows
	rows   [][]any
	i      int
	closed bool
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.rows[r.i]) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 { r.closed = true }

func assign(dest []any, vals []any) error {
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if vals[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

// fakeTx shares the fakeDB so queries issued inside a transaction land in the
// same call log.
type fakeTx struct {
	pgx.Tx
	db        *fakeDB
	commits   int
	rollbacks int
	commitErr error
	finished  bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.commits++
	t.finished = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.finished {
		return pgx.ErrTxClosed
	}
	t.rollbacks++
	t.finished = true
	return nil
}

type fakePool struct {
	*fakeDB
	tx       *fakeTx
	beginErr error
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	return p.tx, nil
}
