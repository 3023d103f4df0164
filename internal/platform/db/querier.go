package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool that repositories depend on.
// Both *pgxpool.Pool and the pgxmock pool satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type contextKey string

// DBTxKey carries an open pgx.Tx through the request context so repositories
// participate in the surrounding transaction.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the transaction placed in the context by WithTx,
// or nil when the caller is not inside a transaction.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a single database transaction. The transaction is
// injected into the context so that repository calls made from fn all ride
// the same transaction. Any error from fn rolls the whole unit back. Nested
// calls reuse the transaction already in the context.
func WithTx(ctx context.Context, q Querier, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := q.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Conn returns the transaction from the context when present, falling back
// to the supplied Querier. Repositories route every statement through this.
func Conn(ctx context.Context, q Querier) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return txQuerier{tx}
	}
	return q
}

// txQuerier adapts pgx.Tx to Querier.
type txQuerier struct {
	tx pgx.Tx
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t txQuerier) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.tx.Begin(ctx)
}
