package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/billbuddy/billbuddy/internal/auth"
	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// AuthService handles registration and login, bridging the authenticator,
// JWT issuance and invite claiming.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwt           *auth.JWTManager
	groups        *GroupService
}

// NewAuthService creates an AuthService.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwt *auth.JWTManager, groups *GroupService) *AuthService {
	return &AuthService{
		store:         store,
		authenticator: authenticator,
		jwt:           jwt,
		groups:        groups,
	}
}

// Session is an authenticated account plus its bearer token.
type Session struct {
	Account *models.Account
	Token   string
}

// Register creates an account, claims any invites pending on its email, and
// returns a ready session.
func (s *AuthService) Register(ctx context.Context, email, firstName, lastName, password string) (*Session, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	account, err := s.authenticator.Register(ctx, email, firstName, lastName, password)
	if err != nil {
		return nil, err
	}

	// Invites sent before signup attach to the new account here.
	if _, err := s.groups.ClaimInvites(ctx, account); err != nil {
		slog.Error("Failed to claim pending invites", "account_id", account.ID, "error", err)
	}

	token, err := s.jwt.Generate(account)
	if err != nil {
		return nil, err
	}
	slog.Info("Account registered", "account_id", account.ID)
	return &Session{Account: account, Token: token}, nil
}

// Login authenticates the credentials and returns a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := s.jwt.Generate(account)
	if err != nil {
		return nil, err
	}
	return &Session{Account: account, Token: token}, nil
}

// GetAccount returns the account behind an authenticated session.
func (s *AuthService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.store.GetAccountByID(ctx, accountID)
}
