package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// unchanged against the pool or inside a transaction.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner can start a database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxDB runs statements and can open a (nested) transaction. Announcement
// publishing needs it to write the announcement and its recipients together.
type TxDB interface {
	PGXDB
	TxBeginner
}

var (
	_ TxDB = (*pgxpool.Pool)(nil)
	_ TxDB = (pgx.Tx)(nil)
)
