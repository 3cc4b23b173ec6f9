package entity

// Claim is a named permission. Claims live in the schema but are not
// read or written by the registration flow.
type Claim struct {
	ID          int64
	Description string
	Active      bool
}

// UserClaim links a user to a claim (user_claims join table).
type UserClaim struct {
	UserID  int64
	ClaimID int64
}
