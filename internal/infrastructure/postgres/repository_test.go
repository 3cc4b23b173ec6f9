package postgres

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

var (
	insertUserSQL  = regexp.QuoteMeta(`INSERT INTO users (name, email, password, role_id)`)
	refreshUserSQL = regexp.QuoteMeta(`SELECT name, email, password, role_id, created_at, updated_at`)
	existsSQL      = regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`)
	roleSQL        = regexp.QuoteMeta(`SELECT id, description`)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func bruno() repository.CreateUserParams {
	return repository.CreateUserParams{Name: "Bruno", Email: "bruno@x.com", PasswordHash: "$argon2id$hash", RoleID: 1}
}

func TestRoleRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	roles := NewRoleRepository(mock)

	mock.ExpectQuery(roleSQL).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "description"}).AddRow(int64(1), "admin"))

	role, err := roles.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &entity.Role{ID: 1, Description: "admin"}, role)
}

func TestRoleRepository_GetByID_Absent(t *testing.T) {
	mock := newMock(t)
	roles := NewRoleRepository(mock)

	mock.ExpectQuery(roleSQL).WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "description"}))

	role, err := roles.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	mock := newMock(t)
	users := NewUserRepository(mock)

	mock.ExpectQuery(existsSQL).WithArgs("bruno@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := users.ExistsByEmail(context.Background(), "bruno@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_CreateAndRefreshInTransaction(t *testing.T) {
	mock := newMock(t)
	users := NewUserRepository(mock)
	uow := NewUnitOfWork(mock, quietLogger())
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := bruno()

	mock.ExpectBegin()
	mock.ExpectQuery(insertUserSQL).WithArgs(in.Name, in.Email, in.PasswordHash, in.RoleID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(refreshUserSQL).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"name", "email", "password", "role_id", "created_at", "updated_at"}).
			AddRow(in.Name, in.Email, in.PasswordHash, in.RoleID, createdAt, nil))
	mock.ExpectCommit()

	var got *entity.User
	err := repository.RunInTransaction(context.Background(), uow, func(ctx context.Context) error {
		u, err := users.Create(ctx, in)
		if err != nil {
			return err
		}
		got = u
		return users.Refresh(ctx, u)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.ID)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)
}

func TestUserRepository_CreateMapsConstraintViolations(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind problem.Kind
	}{
		{"unique email", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: usersEmailKey}, problem.KindEmailAlreadyExists},
		{"missing role", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: usersRoleIDFkey}, problem.KindRoleNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			users := NewUserRepository(mock)
			uow := NewUnitOfWork(mock, quietLogger())

			mock.ExpectBegin()
			in := bruno()
			mock.ExpectQuery(insertUserSQL).WithArgs(in.Name, in.Email, in.PasswordHash, in.RoleID).
				WillReturnError(tc.err)
			mock.ExpectRollback()

			err := repository.RunInTransaction(context.Background(), uow, func(ctx context.Context) error {
				_, err := users.Create(ctx, bruno())
				return err
			})
			assert.True(t, problem.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestUserRepository_CreateWrapsOtherErrors(t *testing.T) {
	mock := newMock(t)
	users := NewUserRepository(mock)
	dbErr := &pgconn.PgError{Code: "57014", Message: "canceling statement"}

	mock.ExpectQuery(insertUserSQL).WithArgs(anyArgs(4)...).WillReturnError(dbErr)

	_, err := users.Create(context.Background(), bruno())
	require.Error(t, err)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	_, isProblem := problem.From(err)
	assert.False(t, isProblem)
}

func TestUnitOfWork_RefreshFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	users := NewUserRepository(mock)
	uow := NewUnitOfWork(mock, quietLogger())
	refreshErr := errors.New("connection lost")

	mock.ExpectBegin()
	mock.ExpectQuery(insertUserSQL).WithArgs(anyArgs(4)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(refreshUserSQL).WithArgs(int64(3)).WillReturnError(refreshErr)
	mock.ExpectRollback()

	err := repository.RunInTransaction(context.Background(), uow, func(ctx context.Context) error {
		u, err := users.Create(ctx, bruno())
		if err != nil {
			return err
		}
		return users.Refresh(ctx, u)
	})
	assert.ErrorIs(t, err, refreshErr)
}

func TestUnitOfWork_NoopsWithoutTransaction(t *testing.T) {
	uow := NewUnitOfWork(newMock(t), quietLogger())
	assert.NoError(t, uow.Commit(context.Background()))
	assert.NoError(t, uow.Rollback(context.Background()))
}

func TestUnitOfWork_SecondFinishIsNoop(t *testing.T) {
	mock := newMock(t)
	uow := NewUnitOfWork(mock, quietLogger())

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))
	assert.NoError(t, uow.Rollback(ctx))
	assert.NoError(t, uow.Commit(ctx))
}

func TestUnitOfWork_NestedBeginOpensSavepoint(t *testing.T) {
	mock := newMock(t)
	uow := NewUnitOfWork(mock, quietLogger())

	mock.ExpectBegin()    // outer
	mock.ExpectBegin()    // savepoint
	mock.ExpectRollback() // savepoint
	mock.ExpectCommit()   // outer

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	assert.NotSame(t, stateFrom(outer), stateFrom(inner))
	assert.Same(t, stateFrom(outer), stateFrom(inner).parent)

	require.NoError(t, uow.Rollback(inner))
	require.NoError(t, uow.Commit(outer))
}

func TestUnitOfWork_RollbackIgnoresClosedTx(t *testing.T) {
	mock := newMock(t)
	uow := NewUnitOfWork(mock, quietLogger())

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	assert.NoError(t, uow.Rollback(ctx))
}

func TestUnitOfWork_BeginError(t *testing.T) {
	mock := newMock(t)
	uow := NewUnitOfWork(mock, quietLogger())
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	ctx := context.Background()
	got, err := uow.Begin(ctx)
	assert.ErrorContains(t, err, "pool exhausted")
	assert.Equal(t, ctx, got)
}
