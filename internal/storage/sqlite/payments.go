package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// InsertPayment persists a new payment intent inside the transaction, so a
// failed allocation aborts the payment record too.
func (t *sqliteTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO payments (id, group_id, paid_by_member_id, paid_to_member_id, amount_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.GroupID, p.PaidByMemberID, p.PaidToMemberID, int64(p.Amount), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPaymentsByGroup returns the group's payments, newest first, with both
// member display names resolved.
func (s *SQLiteStore) ListPaymentsByGroup(ctx context.Context, groupID string) ([]storage.PaymentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.group_id, p.paid_by_member_id, p.paid_to_member_id, p.amount_cents, p.created_at,
		       COALESCE(ba.first_name, ''), COALESCE(ba.last_name, ''), bm.name, bm.email,
		       COALESCE(ta.first_name, ''), COALESCE(ta.last_name, ''), tm.name, tm.email
		FROM payments p
		JOIN group_members bm ON bm.id = p.paid_by_member_id
		LEFT JOIN accounts ba ON ba.id = bm.account_id
		JOIN group_members tm ON tm.id = p.paid_to_member_id
		LEFT JOIN accounts ta ON ta.id = tm.account_id
		WHERE p.group_id = ?
		ORDER BY p.created_at DESC, p.rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []storage.PaymentInfo
	for rows.Next() {
		var info storage.PaymentInfo
		var amount int64
		var bFirst, bLast, bName, bEmail string
		var tFirst, tLast, tName, tEmail string
		p := &info.Payment
		if err := rows.Scan(&p.ID, &p.GroupID, &p.PaidByMemberID, &p.PaidToMemberID, &amount, &p.CreatedAt,
			&bFirst, &bLast, &bName, &bEmail,
			&tFirst, &tLast, &tName, &tEmail); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = money.Cents(amount)
		info.PaidByName = displayName(bFirst, bLast, bName, bEmail)
		info.PaidToName = displayName(tFirst, tLast, tName, tEmail)
		payments = append(payments, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
