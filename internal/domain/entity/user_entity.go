package entity

import (
	"time"
)

// User is the aggregate root for the registration domain.
// Password always holds a hash, never the plaintext.
//
// ID stays zero until the row is persisted.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	RoleID    int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}
