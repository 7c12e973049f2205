package models

// Member is a group-scoped participant, distinct from a global Account.
//
// Invites create members before the invited person has an account: such a
// member has an empty AccountID and is matched by email. When the person
// signs up, the member is "claimed" — AccountID transitions from empty to a
// concrete id exactly once.
//
// Uniqueness: at most one member per (group, account) once claimed, and at
// most one unclaimed member per (group, email).
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// GroupID is the group this membership belongs to.
	GroupID string

	// AccountID links to the global account, or "" while unclaimed.
	AccountID string

	// Email is the invite email (lowercase). Kept after claiming so the
	// invite trail survives.
	Email string

	// Name is the display name used when no account is linked.
	Name string

	// Active is false after removal/leave; re-inviting flips it back.
	Active bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}
