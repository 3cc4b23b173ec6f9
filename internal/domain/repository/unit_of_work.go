package repository

import (
	"context"
)

// UnitOfWork is the transaction boundary used by application use cases.
//
// Begin returns a context carrying the new transaction; repositories pick it
// up from there. Commit and Rollback are no-ops when ctx carries no active
// transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RunInTransaction runs fn inside a transaction opened on uow.
// A nil result commits. A non-nil result rolls back and is returned as is;
// a rollback failure never replaces it. A panic rolls back and re-panics.
func RunInTransaction(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback(txCtx)
			panic(p)
		}
		if err != nil {
			_ = uow.Rollback(txCtx)
			return
		}
		err = uow.Commit(txCtx)
	}()

	err = fn(txCtx)
	return err
}
