package auth

import (
	"context"

	"github.com/billbuddy/billbuddy/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password,
// passkeys, OAuth, etc.) without changing the service layer code.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	// The credential format depends on the implementation.
	Register(ctx context.Context, email, firstName, lastName, credential string) (*models.Account, error)

	// Authenticate verifies the credentials and returns the account if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements (length, format, ...).
	ValidateCredential(credential string) error
}
