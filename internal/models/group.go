package models

// Group represents a circle of people who share expenses.
//
// A group is active iff it has at least one active member; the flag is
// recomputed whenever membership changes, never set directly.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// OwnerAccountID is the account that created the group.
	OwnerAccountID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Currency is the ISO 4217 code all amounts in the group are denominated
	// in. There is no conversion; one group, one currency.
	Currency string

	// Image is an optional URL for the group picture.
	Image string

	// InviteToken, when set, lets anyone holding it join the group.
	InviteToken string

	// Active is derived from membership: true iff >=1 active member.
	Active bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
