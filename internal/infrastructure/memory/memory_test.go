package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

func newFixture() (*Store, *UserRepository, *UnitOfWork) {
	s := NewStore(DefaultRoles...)
	s.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, NewUserRepository(s), NewUnitOfWork(s)
}

func params(email string) repository.CreateUserParams {
	return repository.CreateUserParams{Name: "Bruno", Email: email, PasswordHash: "hash", RoleID: 1}
}

func TestRoleRepository_GetByID(t *testing.T) {
	s := NewStore(DefaultRoles...)
	roles := NewRoleRepository(s)

	role, err := roles.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, "manager", role.Description)

	role, err = roles.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestCreate_StagedRowInvisibleUntilCommit(t *testing.T) {
	s, users, uow := newFixture()
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	u, err := users.Create(txCtx, params("bruno@x.com"))
	require.NoError(t, err)
	assert.True(t, u.CreatedAt.IsZero(), "generated columns are filled by Refresh")

	exists, err := users.ExistsByEmail(ctx, "bruno@x.com")
	require.NoError(t, err)
	assert.False(t, exists, "outside the transaction the row is not visible")

	exists, err = users.ExistsByEmail(txCtx, "bruno@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, users.Refresh(txCtx, u))
	assert.Equal(t, s.Now(), u.CreatedAt)
	assert.Nil(t, u.UpdatedAt)

	require.NoError(t, uow.Commit(txCtx))
	require.Len(t, s.Users(), 1)
	assert.Equal(t, "bruno@x.com", s.Users()[0].Email)
}

func TestRollback_DiscardsRows(t *testing.T) {
	s, users, uow := newFixture()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	_, err = users.Create(txCtx, params("gone@x.com"))
	require.NoError(t, err)

	require.NoError(t, uow.Rollback(txCtx))
	assert.Empty(t, s.Users())

	// later calls on a finished transaction are no-ops
	require.NoError(t, uow.Commit(txCtx))
	assert.Empty(t, s.Users())
}

func TestCommitAndRollback_WithoutTransactionAreNoops(t *testing.T) {
	_, _, uow := newFixture()
	assert.NoError(t, uow.Commit(context.Background()))
	assert.NoError(t, uow.Rollback(context.Background()))
}

func TestNestedTransaction_InnerRollbackKeepsOuterRows(t *testing.T) {
	s, users, uow := newFixture()

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	_, err = users.Create(outer, params("outer@x.com"))
	require.NoError(t, err)

	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	_, err = users.Create(inner, params("inner@x.com"))
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(inner))

	require.NoError(t, uow.Commit(outer))
	got := s.Users()
	require.Len(t, got, 1)
	assert.Equal(t, "outer@x.com", got[0].Email)
}

func TestNestedTransaction_InnerCommitWaitsForOuter(t *testing.T) {
	s, users, uow := newFixture()

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	_, err = users.Create(inner, params("inner@x.com"))
	require.NoError(t, err)
	require.NoError(t, uow.Commit(inner))

	assert.Empty(t, s.Users(), "inner commit only hands rows to the parent")

	// committing the inner context again must not commit the outer one
	require.NoError(t, uow.Commit(inner))
	assert.Empty(t, s.Users())

	require.NoError(t, uow.Commit(outer))
	assert.Len(t, s.Users(), 1)
}

func TestCreate_DuplicateEmailWithinTransaction(t *testing.T) {
	_, users, uow := newFixture()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	_, err = users.Create(txCtx, params("dup@x.com"))
	require.NoError(t, err)

	_, err = users.Create(txCtx, params("dup@x.com"))
	assert.True(t, problem.Is(err, problem.KindEmailAlreadyExists))
}

func TestCreate_WithoutTransactionChecksRole(t *testing.T) {
	s, users, _ := newFixture()

	in := params("norole@x.com")
	in.RoleID = 42
	_, err := users.Create(context.Background(), in)
	assert.True(t, problem.Is(err, problem.KindRoleNotFound))
	assert.Empty(t, s.Users())
}

func TestRefresh_UnknownUser(t *testing.T) {
	_, users, _ := newFixture()
	err := users.Refresh(context.Background(), &entity.User{ID: 77})
	assert.Error(t, err)
}

func TestConcurrentCommits_SameEmailOnlyOneWins(t *testing.T) {
	s, users, uow := newFixture()
	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		okCount  int
		conflict int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repository.RunInTransaction(context.Background(), uow, func(ctx context.Context) error {
				_, err := users.Create(ctx, params("race@x.com"))
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			var p *problem.Problem
			switch {
			case err == nil:
				okCount++
			case errors.As(err, &p) && p.Kind == problem.KindEmailAlreadyExists:
				conflict++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, okCount)
	assert.Equal(t, workers-1, conflict)
	assert.Len(t, s.Users(), 1)
}
