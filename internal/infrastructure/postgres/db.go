package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is what repositories run statements on. Both the pool and an
// open pgx.Tx satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the subset of *pgxpool.Pool used by this package.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

type txState struct {
	tx     pgx.Tx
	parent *txState
	done   bool
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// conn returns the active transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db DB) Querier {
	for st := stateFrom(ctx); st != nil; st = st.parent {
		if !st.done {
			return st.tx
		}
	}
	return db
}
