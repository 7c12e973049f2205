package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// CreateGroup persists a new group. Generates ID and CreatedAt if unset.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *models.Group) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}
	if g.Currency == "" {
		g.Currency = models.DefaultCurrency
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, owner_account_id, name, currency, image, invite_token, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerAccountID, g.Name, g.Currency, g.Image, nullIfEmpty(g.InviteToken), g.Active, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// UpdateGroup updates a group's mutable fields (name, currency, image,
// invite token). Ownership and the active flag are managed elsewhere.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, g *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, currency = ?, image = ?, invite_token = ?
		 WHERE id = ? AND owner_account_id = ?`,
		g.Name, g.Currency, g.Image, nullIfEmpty(g.InviteToken), g.ID, g.OwnerAccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", g.ID, storage.ErrNotFound)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, "id = ?", groupID)
}

// GetGroupByInviteToken retrieves a group by its invite token.
func (s *SQLiteStore) GetGroupByInviteToken(ctx context.Context, token string) (*models.Group, error) {
	return s.getGroup(ctx, "invite_token = ?", token)
}

func (s *SQLiteStore) getGroup(ctx context.Context, where string, arg any) (*models.Group, error) {
	g := &models.Group{}
	var token sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_account_id, name, currency, image, invite_token, active, created_at
		 FROM groups WHERE `+where, arg,
	).Scan(&g.ID, &g.OwnerAccountID, &g.Name, &g.Currency, &g.Image, &token, &g.Active, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if token.Valid {
		g.InviteToken = token.String
	}
	return g, nil
}

// ListGroupsByAccount returns the groups the account is an active member of,
// active groups first, newest first within each.
func (s *SQLiteStore) ListGroupsByAccount(ctx context.Context, accountID string, filter storage.GroupFilter) ([]*models.Group, error) {
	query := `
		SELECT g.id, g.owner_account_id, g.name, g.currency, g.image, g.invite_token, g.active, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.account_id = ? AND m.active = 1`
	switch filter {
	case storage.GroupsActive:
		query += " AND g.active = 1"
	case storage.GroupsArchived:
		query += " AND g.active = 0"
	}
	query += " ORDER BY g.active DESC, g.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		var token sql.NullString
		if err := rows.Scan(&g.ID, &g.OwnerAccountID, &g.Name, &g.Currency, &g.Image, &token, &g.Active, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		if token.Valid {
			g.InviteToken = token.String
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// SetGroupActive persists the derived group active flag.
func (s *SQLiteStore) SetGroupActive(ctx context.Context, groupID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET active = ? WHERE id = ?", active, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to set group active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set group active: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// CountActiveMembers returns the number of active members in the group.
func (s *SQLiteStore) CountActiveMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_members WHERE group_id = ? AND active = 1", groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return n, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
