package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
)

// CreateUserParams carries the columns written on insert.
// PasswordHash must already be hashed.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
}

// UserRepository defines the interface for user-related database operations.
// Implementations run on the transaction bound to ctx when one is active.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts a row and assigns its ID. It never commits.
	Create(ctx context.Context, in CreateUserParams) (*entity.User, error)
	// Refresh reloads generated columns (timestamps) into u.
	Refresh(ctx context.Context, u *entity.User) error
}
