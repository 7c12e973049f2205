package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

var (
	// ErrNoOpenShares means a payment found nothing to settle.
	ErrNoOpenShares = errors.New("no open shares to settle")
	// ErrInactiveMember means the payer or payee is not an active member.
	ErrInactiveMember = errors.New("member is not active")
	// ErrWrongGroup means a referenced member belongs to another group.
	ErrWrongGroup = errors.New("member belongs to a different group")
)

// PaymentRequest describes one settlement payment to record and apply.
type PaymentRequest struct {
	GroupID        string
	PayerMemberID  string
	PayeeMemberID  string
	Amount         money.Cents
	// ShareIDs, when non-empty, switches to "mark these as paid" mode:
	// the named shares are settled in full, in the given order, and Amount
	// is recorded on the payment intent without constraining them.
	ShareIDs []string
}

// PaymentResult reports what a recorded payment actually settled.
type PaymentResult struct {
	PaymentID     string
	AmountSent    money.Cents
	AmountApplied money.Cents
	Deltas        []Delta
}

// RecordPayment creates the payment intent record and applies it to the
// ledger, all inside the caller's transaction: if settling fails, the
// payment record rolls back with everything else.
//
// Without explicit share IDs the amount is allocated oldest-expense-first
// across the payer's open shares toward the payee. With explicit IDs each
// named share is settled in full regardless of the amount; the caller sees
// both AmountSent and AmountApplied and can surface a mismatch.
func RecordPayment(ctx context.Context, tx storage.Tx, req PaymentRequest) (*PaymentResult, error) {
	payer, err := tx.GetMember(ctx, req.PayerMemberID)
	if err != nil {
		return nil, err
	}
	payee, err := tx.GetMember(ctx, req.PayeeMemberID)
	if err != nil {
		return nil, err
	}
	if payer.GroupID != req.GroupID || payee.GroupID != req.GroupID {
		return nil, ErrWrongGroup
	}
	if !payer.Active || !payee.Active {
		return nil, ErrInactiveMember
	}

	payment := &models.Payment{
		GroupID:        req.GroupID,
		PaidByMemberID: req.PayerMemberID,
		PaidToMemberID: req.PayeeMemberID,
		Amount:         req.Amount,
	}
	if err := tx.InsertPayment(ctx, payment); err != nil {
		return nil, err
	}

	result := &PaymentResult{PaymentID: payment.ID, AmountSent: req.Amount}

	if len(req.ShareIDs) > 0 {
		shares, err := tx.GetSharesByIDs(ctx, req.ShareIDs)
		if err != nil {
			return nil, err
		}
		if len(shares) == 0 {
			return nil, fmt.Errorf("selected shares: %w", ErrNoOpenShares)
		}
		if err := settleInFull(ctx, tx, shares, result); err != nil {
			return nil, err
		}
	} else {
		candidates, err := tx.ListOpenShares(ctx, req.GroupID, req.PayerMemberID, req.PayeeMemberID)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, ErrNoOpenShares
		}
		alloc, err := Allocate(ctx, tx, req.Amount, candidates)
		if err != nil {
			return nil, err
		}
		result.AmountApplied = alloc.Applied
		result.Deltas = alloc.Deltas
	}

	// Each credited expense had its payer share provisionally marked "paid
	// back already" at creation time; now that real money (or an explicit
	// settle) moved, draw that down and refresh the settled flags.
	perExpense := make(map[string]money.Cents)
	var expenseOrder []string
	for _, d := range result.Deltas {
		if _, seen := perExpense[d.ExpenseID]; !seen {
			expenseOrder = append(expenseOrder, d.ExpenseID)
		}
		perExpense[d.ExpenseID] += d.Applied
	}
	for _, expenseID := range expenseOrder {
		if err := ReducePayerSharePaid(ctx, tx, expenseID, perExpense[expenseID]); err != nil {
			return nil, err
		}
		if err := RecomputeExpenseSettled(ctx, tx, expenseID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// settleInFull marks each share fully paid, whatever its current balance.
func settleInFull(ctx context.Context, tx storage.Tx, shares []*models.ExpenseShare, result *PaymentResult) error {
	for _, share := range shares {
		left := share.LeftToPay()
		if left <= 0 {
			continue
		}
		prev := share.Paid
		share.Paid = share.Amount
		if err := saveShare(ctx, tx, share); err != nil {
			return err
		}
		result.AmountApplied += left
		result.Deltas = append(result.Deltas, Delta{
			ShareID:   share.ID,
			ExpenseID: share.ExpenseID,
			Applied:   left,
			PrevPaid:  prev,
			NewPaid:   share.Paid,
		})
	}
	return nil
}
