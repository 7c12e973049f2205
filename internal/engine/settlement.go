// Package engine implements the debt-settlement core: share allocation,
// bilateral netting of reciprocal debts, payment processing and the derived
// settlement state.
//
// Every write path runs against an explicit storage.Tx passed in by the
// caller, so all mutations of one operation commit or abort together. The
// derivations here are idempotent: recomputing an unchanged share or expense
// is a no-op.
package engine

import (
	"context"
	"errors"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// StatusFor derives a share's status from its amount and paid fields.
func StatusFor(share *models.ExpenseShare) models.ShareStatus {
	switch {
	case share.LeftToPay() == 0:
		return models.StatusFullyPaid
	case share.Paid > 0:
		return models.StatusPartiallyPaid
	default:
		return models.StatusNotPaid
	}
}

// saveShare persists a share's paid amount together with its freshly derived
// status. All engine mutations of a share funnel through here.
func saveShare(ctx context.Context, tx storage.Tx, share *models.ExpenseShare) error {
	share.Status = StatusFor(share)
	return tx.UpdateSharePaid(ctx, share.ID, share.Paid, share.Status)
}

// RecomputeExpenseSettled derives the expense's settled flag: true iff no
// share of the expense remains open. Safe to call any number of times.
func RecomputeExpenseSettled(ctx context.Context, tx storage.Tx, expenseID string) error {
	open, err := tx.CountOpenShares(ctx, expenseID)
	if err != nil {
		return err
	}
	return tx.SetExpenseSettled(ctx, expenseID, open == 0)
}

// ReducePayerSharePaid decreases the recorded paid amount of the expense
// payer's own share by reduceBy, floored at the share's face amount.
//
// The payer share is created with paid set to the whole expense amount ("I
// already covered my part"). When other members settle their shares — with
// cash or through netting — that provisional credit is drawn down so the
// ledger keeps balancing. Paid never drops below the share's own amount, so
// the payer share stays fully paid.
func ReducePayerSharePaid(ctx context.Context, tx storage.Tx, expenseID string, reduceBy money.Cents) error {
	if reduceBy <= 0 {
		return nil
	}

	payerShare, err := tx.GetPayerShare(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		// Expense was created without a payer share; nothing to adjust.
		return nil
	}
	if err != nil {
		return err
	}

	next := payerShare.Paid - reduceBy
	if next < payerShare.Amount {
		next = payerShare.Amount
	}
	if next == payerShare.Paid {
		return nil
	}
	payerShare.Paid = next
	return saveShare(ctx, tx, payerShare)
}
