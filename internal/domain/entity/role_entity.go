package entity

// Role represents an authorization role.
// Users reference exactly one role via role_id; roles are read-only here.
type Role struct {
	ID          int64
	Description string
}
