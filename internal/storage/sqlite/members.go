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

// UpsertMemberByAccount creates or reactivates the member row for
// (group, account). The unique index on (group_id, account_id) guarantees at
// most one claimed member per account per group.
func (s *SQLiteStore) UpsertMemberByAccount(ctx context.Context, groupID, accountID, email, name string) (*models.Member, error) {
	now := time.Now().Unix()
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (id, group_id, account_id, email, name, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (group_id, account_id) WHERE account_id IS NOT NULL
		 DO UPDATE SET active = 1, email = excluded.email, name = excluded.name, updated_at = excluded.updated_at`,
		uuid.New().String(), groupID, accountID, email, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}
	return s.GetMemberByAccount(ctx, groupID, accountID)
}

// UpsertInvitedMember creates or refreshes the unclaimed member row for
// (group, email). Invited members stay inactive until the invite is claimed.
func (s *SQLiteStore) UpsertInvitedMember(ctx context.Context, groupID, email, name string) (*models.Member, error) {
	now := time.Now().Unix()
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (id, group_id, account_id, email, name, active, created_at, updated_at)
		 VALUES (?, ?, NULL, ?, ?, 0, ?, ?)
		 ON CONFLICT (group_id, email) WHERE account_id IS NULL
		 DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		uuid.New().String(), groupID, email, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert invited member: %w", err)
	}

	m, err := s.scanMember(s.db.QueryRowContext(ctx,
		memberColumns+" FROM group_members WHERE group_id = ? AND account_id IS NULL AND email = ?",
		groupID, email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get invited member: %w", err)
	}
	return m, nil
}

// ClaimInvites links every unclaimed member with the given email to the
// account and activates them. The account id is set exactly once; claimed
// rows never match the filter again.
func (s *SQLiteStore) ClaimInvites(ctx context.Context, accountID, email string) (int, []string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT group_id FROM group_members WHERE account_id IS NULL AND email = ?", email,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to find pending invites: %w", err)
	}
	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan invite group: %w", err)
		}
		groupIDs = append(groupIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("failed to iterate invites: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE group_members SET account_id = ?, active = 1, updated_at = ?
		 WHERE account_id IS NULL AND email = ?`,
		accountID, time.Now().Unix(), email,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to claim invites: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to claim invites: %w", err)
	}
	return int(n), groupIDs, nil
}

const memberColumns = "SELECT id, group_id, account_id, email, name, active, created_at, updated_at"

func (s *SQLiteStore) scanMember(row *sql.Row) (*models.Member, error) {
	m := &models.Member{}
	var accountID sql.NullString
	err := row.Scan(&m.ID, &m.GroupID, &accountID, &m.Email, &m.Name, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if accountID.Valid {
		m.AccountID = accountID.String
	}
	return m, nil
}

// GetMemberByAccount retrieves the member row for (group, account).
func (s *SQLiteStore) GetMemberByAccount(ctx context.Context, groupID, accountID string) (*models.Member, error) {
	return s.scanMember(s.db.QueryRowContext(ctx,
		memberColumns+" FROM group_members WHERE group_id = ? AND account_id = ?",
		groupID, accountID,
	))
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	return getMember(ctx, s.db, memberID)
}

func getMember(ctx context.Context, q querier, memberID string) (*models.Member, error) {
	m := &models.Member{}
	var accountID sql.NullString
	err := q.QueryRowContext(ctx,
		memberColumns+" FROM group_members WHERE id = ?", memberID,
	).Scan(&m.ID, &m.GroupID, &accountID, &m.Email, &m.Name, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if accountID.Valid {
		m.AccountID = accountID.String
	}
	return m, nil
}

// GetMember retrieves a member by ID inside the transaction.
func (t *sqliteTx) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	return getMember(ctx, t.tx, memberID)
}

// ListMembers returns members of a group with their account identity
// resolved for display.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string, activeOnly bool) ([]storage.MemberInfo, error) {
	query := `
		SELECT m.id, m.account_id, m.email, m.name, m.active,
		       COALESCE(a.first_name, ''), COALESCE(a.last_name, ''), COALESCE(a.email, '')
		FROM group_members m
		LEFT JOIN accounts a ON a.id = m.account_id
		WHERE m.group_id = ?`
	if activeOnly {
		query += " AND m.active = 1"
	}
	query += " ORDER BY m.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []storage.MemberInfo
	for rows.Next() {
		var (
			info        storage.MemberInfo
			accountID   sql.NullString
			inviteName  string
			first, last string
			accEmail    string
		)
		if err := rows.Scan(&info.ID, &accountID, &info.Email, &inviteName, &info.Active, &first, &last, &accEmail); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if accountID.Valid {
			info.AccountID = accountID.String
		}
		info.Name = displayName(first, last, inviteName, info.Email)
		if accEmail != "" {
			info.Email = accEmail
		}
		members = append(members, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// DeactivateMembers marks the members inactive and reports the affected
// groups so callers can recompute group activity.
func (s *SQLiteStore) DeactivateMembers(ctx context.Context, memberIDs []string) (int, []string, error) {
	if len(memberIDs) == 0 {
		return 0, nil, nil
	}

	placeholders := strings.Repeat("?,", len(memberIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(memberIDs))
	for i, id := range memberIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT group_id FROM group_members WHERE id IN ("+placeholders+")", args...,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to find member groups: %w", err)
	}
	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		groupIDs = append(groupIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE group_members SET active = 0, updated_at = ? WHERE id IN ("+placeholders+")",
		append([]any{time.Now().Unix()}, args...)...,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to deactivate members: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to deactivate members: %w", err)
	}
	return int(n), groupIDs, nil
}

// displayName prefers the linked account's name, then the invite name, then
// the email local part.
func displayName(first, last, inviteName, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		name = strings.TrimSpace(inviteName)
	}
	if name == "" {
		if i := strings.IndexByte(email, '@'); i > 0 {
			name = email[:i]
		} else {
			name = "Member"
		}
	}
	return name
}
