package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// CreateExpense persists a new expense. Generates ID and CreatedAt if unset.
// Shares are created separately, inside the netting transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_member_id, amount_cents, description, settled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.PayerMemberID, int64(e.Amount), e.Description, e.Settled, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

const expenseColumns = "SELECT id, group_id, payer_member_id, amount_cents, description, settled, created_at FROM expenses"

func getExpense(ctx context.Context, q querier, expenseID string) (*models.Expense, error) {
	e := &models.Expense{}
	var amount int64
	err := q.QueryRowContext(ctx, expenseColumns+" WHERE id = ?", expenseID).
		Scan(&e.ID, &e.GroupID, &e.PayerMemberID, &amount, &e.Description, &e.Settled, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	e.Amount = money.Cents(amount)
	return e, nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, s.db, expenseID)
}

// GetExpense retrieves an expense by ID inside the transaction.
func (t *sqliteTx) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, t.tx, expenseID)
}

// ListExpensesByGroup returns the group's expenses, newest first, with payer
// display names resolved.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]storage.ExpenseInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.group_id, e.payer_member_id, e.amount_cents, e.description, e.settled, e.created_at,
		       COALESCE(a.first_name, ''), COALESCE(a.last_name, ''), m.name, m.email
		FROM expenses e
		JOIN group_members m ON m.id = e.payer_member_id
		LEFT JOIN accounts a ON a.id = m.account_id
		WHERE e.group_id = ?
		ORDER BY e.created_at DESC, e.rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []storage.ExpenseInfo
	for rows.Next() {
		var info storage.ExpenseInfo
		var amount int64
		var first, last, mName, mEmail string
		e := &info.Expense
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerMemberID, &amount, &e.Description, &e.Settled, &e.CreatedAt,
			&first, &last, &mName, &mEmail); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Cents(amount)
		info.PayerName = displayName(first, last, mName, mEmail)
		expenses = append(expenses, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListExpenseShares returns all shares of an expense with ower identity
// resolved, in insertion order.
func (s *SQLiteStore) ListExpenseShares(ctx context.Context, expenseID string) ([]storage.ShareInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.id, sh.expense_id, sh.owes_member_id, sh.amount_cents, sh.paid_cents, sh.status, sh.created_at, sh.updated_at,
		       COALESCE(a.first_name, ''), COALESCE(a.last_name, ''), m.name, m.email, COALESCE(a.email, '')
		FROM expense_shares sh
		JOIN group_members m ON m.id = sh.owes_member_id
		LEFT JOIN accounts a ON a.id = m.account_id
		WHERE sh.expense_id = ?
		ORDER BY sh.rowid ASC`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense shares: %w", err)
	}
	defer rows.Close()

	var shares []storage.ShareInfo
	for rows.Next() {
		var info storage.ShareInfo
		var amount, paid int64
		var first, last, mName, mEmail, accEmail string
		sh := &info.Share
		if err := rows.Scan(&sh.ID, &sh.ExpenseID, &sh.OwesMemberID, &amount, &paid, &sh.Status, &sh.CreatedAt, &sh.UpdatedAt,
			&first, &last, &mName, &mEmail, &accEmail); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		sh.Amount = money.Cents(amount)
		sh.Paid = money.Cents(paid)
		info.OwerName = displayName(first, last, mName, mEmail)
		info.OwerEmail = mEmail
		if accEmail != "" {
			info.OwerEmail = accEmail
		}
		shares = append(shares, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return shares, nil
}

// InsertShares persists new shares inside the transaction.
func (t *sqliteTx) InsertShares(ctx context.Context, shares []*models.ExpenseShare) error {
	for _, sh := range shares {
		if sh.ID == "" {
			sh.ID = uuid.New().String()
		}
		now := time.Now().Unix()
		if sh.CreatedAt == 0 {
			sh.CreatedAt = now
		}
		sh.UpdatedAt = now

		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO expense_shares (id, expense_id, owes_member_id, amount_cents, paid_cents, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sh.ID, sh.ExpenseID, sh.OwesMemberID, int64(sh.Amount), int64(sh.Paid), string(sh.Status), sh.CreatedAt, sh.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

const shareColumns = "SELECT id, expense_id, owes_member_id, amount_cents, paid_cents, status, created_at, updated_at FROM expense_shares"

func scanShares(rows *sql.Rows) ([]*models.ExpenseShare, error) {
	defer rows.Close()
	var shares []*models.ExpenseShare
	for rows.Next() {
		sh := &models.ExpenseShare{}
		var amount, paid int64
		if err := rows.Scan(&sh.ID, &sh.ExpenseID, &sh.OwesMemberID, &amount, &paid, &sh.Status, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		sh.Amount = money.Cents(amount)
		sh.Paid = money.Cents(paid)
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return shares, nil
}

// ListSharesByExpense returns all shares of an expense in insertion order.
func (t *sqliteTx) ListSharesByExpense(ctx context.Context, expenseID string) ([]*models.ExpenseShare, error) {
	rows, err := t.tx.QueryContext(ctx, shareColumns+" WHERE expense_id = ? ORDER BY rowid ASC", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return scanShares(rows)
}

// GetSharesByIDs returns the named shares preserving the caller's order.
func (t *sqliteTx) GetSharesByIDs(ctx context.Context, ids []string) ([]*models.ExpenseShare, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := t.tx.QueryContext(ctx, shareColumns+" WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	shares, err := scanShares(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.ExpenseShare, len(shares))
	for _, sh := range shares {
		byID[sh.ID] = sh
	}
	ordered := make([]*models.ExpenseShare, 0, len(shares))
	for _, id := range ids {
		if sh, ok := byID[id]; ok {
			ordered = append(ordered, sh)
		}
	}
	return ordered, nil
}

// ListOpenShares returns candidate shares for netting and allocation, ordered
// oldest-expense-first so the oldest debt is retired first. The rowid
// tie-break keeps the order stable for expenses created in the same second.
func (t *sqliteTx) ListOpenShares(ctx context.Context, groupID, owesMemberID, payeeMemberID string) ([]*models.ExpenseShare, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT sh.id, sh.expense_id, sh.owes_member_id, sh.amount_cents, sh.paid_cents, sh.status, sh.created_at, sh.updated_at
		FROM expense_shares sh
		JOIN expenses e ON e.id = sh.expense_id
		WHERE e.group_id = ? AND e.settled = 0 AND e.payer_member_id = ?
		  AND sh.owes_member_id = ? AND sh.paid_cents < sh.amount_cents
		ORDER BY e.created_at ASC, e.rowid ASC, sh.rowid ASC`,
		groupID, payeeMemberID, owesMemberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open shares: %w", err)
	}
	return scanShares(rows)
}

// GetPayerShare returns the payer's own share on the expense.
func (t *sqliteTx) GetPayerShare(ctx context.Context, expenseID string) (*models.ExpenseShare, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT sh.id, sh.expense_id, sh.owes_member_id, sh.amount_cents, sh.paid_cents, sh.status, sh.created_at, sh.updated_at
		FROM expense_shares sh
		JOIN expenses e ON e.id = sh.expense_id
		WHERE sh.expense_id = ? AND sh.owes_member_id = e.payer_member_id
		LIMIT 1`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payer share: %w", err)
	}
	shares, err := scanShares(rows)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("payer share of expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return shares[0], nil
}

// UpdateSharePaid persists a share's new paid amount and derived status.
func (t *sqliteTx) UpdateSharePaid(ctx context.Context, shareID string, paid money.Cents, status models.ShareStatus) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE expense_shares SET paid_cents = ?, status = ?, updated_at = ? WHERE id = ?",
		int64(paid), string(status), time.Now().Unix(), shareID,
	)
	if err != nil {
		return fmt.Errorf("failed to update share paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update share paid: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("share %s: %w", shareID, storage.ErrNotFound)
	}
	return nil
}

// CountOpenShares counts the expense's shares that are not fully paid.
func (t *sqliteTx) CountOpenShares(ctx context.Context, expenseID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense_shares WHERE expense_id = ? AND status != ?",
		expenseID, string(models.StatusFullyPaid),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open shares: %w", err)
	}
	return n, nil
}

// SetExpenseSettled persists the derived settled flag.
func (t *sqliteTx) SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE expenses SET settled = ? WHERE id = ?", settled, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to set expense settled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set expense settled: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// balanceQuery joins unsettled shares with their expense and a counter-party
// member. The counter-party column set is shared by both directions.
const balanceQuery = `
	SELECT sh.id, sh.expense_id, e.description, e.created_at,
	       cm.id, COALESCE(a.first_name, ''), COALESCE(a.last_name, ''), cm.name, cm.email, COALESCE(a.email, ''),
	       sh.amount_cents, sh.paid_cents
	FROM expense_shares sh
	JOIN expenses e ON e.id = sh.expense_id
	JOIN group_members cm ON cm.id = %s
	LEFT JOIN accounts a ON a.id = cm.account_id
	WHERE e.group_id = ? AND e.settled = 0
	  AND sh.paid_cents < sh.amount_cents
	  AND %s
	ORDER BY e.created_at ASC, e.rowid ASC`

func (s *SQLiteStore) queryBalanceRows(ctx context.Context, counterExpr, cond, groupID, memberID string) ([]storage.BalanceRow, error) {
	query := fmt.Sprintf(balanceQuery, counterExpr, cond)
	rows, err := s.db.QueryContext(ctx, query, groupID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance rows: %w", err)
	}
	defer rows.Close()

	var out []storage.BalanceRow
	for rows.Next() {
		var r storage.BalanceRow
		var first, last, mName, mEmail, accEmail string
		var amount, paid int64
		if err := rows.Scan(&r.ShareID, &r.ExpenseID, &r.Description, &r.ExpenseCreatedAt,
			&r.CounterMemberID, &first, &last, &mName, &mEmail, &accEmail,
			&amount, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		r.CounterName = displayName(first, last, mName, mEmail)
		r.CounterEmail = mEmail
		if accEmail != "" {
			r.CounterEmail = accEmail
		}
		r.Amount = money.Cents(amount)
		r.Paid = money.Cents(paid)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}
	return out, nil
}

// ListOwedBy returns the member's own outstanding shares on expenses paid by
// someone else; the counter-party is the expense payer.
func (s *SQLiteStore) ListOwedBy(ctx context.Context, groupID, memberID string) ([]storage.BalanceRow, error) {
	return s.queryBalanceRows(ctx, "e.payer_member_id",
		"sh.owes_member_id = ? AND e.payer_member_id != sh.owes_member_id",
		groupID, memberID)
}

// ListOwedTo returns outstanding shares other members owe on expenses the
// member paid; the counter-party is the owing member.
func (s *SQLiteStore) ListOwedTo(ctx context.Context, groupID, memberID string) ([]storage.BalanceRow, error) {
	return s.queryBalanceRows(ctx, "sh.owes_member_id",
		"e.payer_member_id = ? AND sh.owes_member_id != e.payer_member_id",
		groupID, memberID)
}
