package memory

import (
	"context"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
)

// UnitOfWork stages writes per transaction and applies them on commit.
// Begin inside an active transaction opens a nested one whose rows move
// to the parent on commit.
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(s *Store) *UnitOfWork {
	return &UnitOfWork{store: s}
}

func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	return context.WithValue(ctx, txKey{}, &tx{parent: txFrom(ctx)}), nil
}

// Commit applies staged rows atomically; a row whose email was committed
// by another transaction in the meantime fails the whole commit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	t := txFrom(ctx)
	if t == nil || !u.owns(ctx, t) {
		return nil
	}
	rows := t.finish()
	if t.parent != nil {
		for _, r := range rows {
			t.parent.stage(r)
		}
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	return u.store.insert(rows...)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	t := txFrom(ctx)
	if t == nil || !u.owns(ctx, t) {
		return nil
	}
	t.finish()
	return nil
}

// owns reports whether t is the transaction ctx was given by Begin, so a
// finished inner transaction never commits its parent.
func (u *UnitOfWork) owns(ctx context.Context, t *tx) bool {
	own, _ := ctx.Value(txKey{}).(*tx)
	return own == t
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
