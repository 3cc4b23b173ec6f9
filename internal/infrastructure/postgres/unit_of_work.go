package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
)

// UnitOfWork opens pgx transactions and binds them to the context.
// Begin on a context that already carries an active transaction opens a
// savepoint instead.
type UnitOfWork struct {
	db     DB
	logger *logrus.Logger
}

func NewUnitOfWork(db DB, logger *logrus.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger}
}

func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	parent := stateFrom(ctx)
	var (
		tx  pgx.Tx
		err error
	)
	if parent != nil && !parent.done {
		tx, err = parent.tx.Begin(ctx)
	} else {
		tx, err = u.db.Begin(ctx)
		parent = nil
	}
	if err != nil {
		return ctx, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey{}, &txState{tx: tx, parent: parent}), nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	st := stateFrom(ctx)
	if st == nil || st.done {
		return nil
	}
	st.done = true
	if err := st.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	st := stateFrom(ctx)
	if st == nil || st.done {
		return nil
	}
	st.done = true
	// rollback must still reach the server when the request was cancelled
	if err := st.tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		if u.logger != nil {
			helpers.LogEntry(ctx, u.logger).WithError(err).Warn("rollback failed")
		}
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
