package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// CreateAccount inserts a new account. Generates ID and timestamps if unset.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, first_name, last_name, password_hash, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.FirstName, a.LastName, a.PasswordHash, a.Active, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByEmail retrieves an account by its email address.
func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetAccountByID retrieves an account by ID.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return s.getAccount(ctx, "id = ?", id)
}

func (s *SQLiteStore) getAccount(ctx context.Context, where string, arg any) (*models.Account, error) {
	a := &models.Account{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, password_hash, active, created_at, updated_at
		 FROM accounts WHERE `+where, arg,
	).Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}
