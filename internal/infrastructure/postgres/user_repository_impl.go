package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	usersEmailKey   = "users_email_key"
	usersRoleIDFkey = "users_role_id_fkey"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Create inserts the row on the active transaction. Constraint violations
// that lose the check-then-insert race come back as problems.
func (r *UserRepository) Create(ctx context.Context, in repository.CreateUserParams) (*entity.User, error) {
	u := &entity.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.PasswordHash,
		RoleID:   in.RoleID,
	}
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (name, email, password, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name, u.Email, u.Password, u.RoleID)

	if err := row.Scan(&u.ID); err != nil {
		return nil, translateInsertErr(err, in)
	}
	return u, nil
}

func (r *UserRepository) Refresh(ctx context.Context, u *entity.User) error {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT name, email, password, role_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`, u.ID)

	if err := row.Scan(&u.Name, &u.Email, &u.Password, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("refresh user %d: %w", u.ID, err)
	}
	return nil
}

func translateInsertErr(err error, in repository.CreateUserParams) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == usersEmailKey:
			return problem.EmailAlreadyExists(in.Email)
		case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == usersRoleIDFkey:
			return problem.RoleNotFound(in.RoleID)
		}
	}
	return fmt.Errorf("insert user: %w", err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
