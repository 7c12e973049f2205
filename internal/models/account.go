package models

// Account represents a registered user identity.
//
// Accounts are global; participation in a group always goes through a Member
// row. A Member references its Account by ID once the invited person signs up.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Email is the account's email address (unique, lowercase).
	// Used for login and for matching pending invites on signup.
	Email string

	// FirstName and LastName form the display name.
	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string

	// Active is false for disabled accounts.
	Active bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// DisplayName returns "First Last", falling back to the email local part.
func (a *Account) DisplayName() string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	if name != "" {
		return name
	}
	for i := 0; i < len(a.Email); i++ {
		if a.Email[i] == '@' {
			return a.Email[:i]
		}
	}
	return a.Email
}
