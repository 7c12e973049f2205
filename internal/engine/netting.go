package engine

import (
	"context"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// OffsetDetail reports how much netting drew from one earlier expense.
type OffsetDetail struct {
	ExpenseID string      `json:"expenseId"`
	Applied   money.Cents `json:"applied"`
}

// OffsetResult is the outcome of one auto-offset pass.
type OffsetResult struct {
	TotalApplied money.Cents    `json:"totalApplied"`
	Details      []OffsetDetail `json:"details"`
}

// AutoOffset nets the freshly created shares of an expense against
// pre-existing reciprocal debt between the payer and each counter-party.
//
// For every member C who now owes payer P on this expense, it looks for
// earlier unsettled expenses paid by C on which P still owes money. Whatever
// can be matched is credited both ways: C's new share is marked paid (C owes
// P that much less) and the old shares of P are drawn down (P no longer pays
// C in cash for them). The payer shares on both the old expenses and the new
// one are reduced accordingly, since the netted part was never fresh money.
//
// Runs entirely inside the caller's transaction; a counter-party with no
// reciprocal debt is simply skipped and their new share stands as full fresh
// debt.
func AutoOffset(ctx context.Context, tx storage.Tx, expense *models.Expense) (*OffsetResult, error) {
	shares, err := tx.ListSharesByExpense(ctx, expense.ID)
	if err != nil {
		return nil, err
	}

	// Group the new debtor shares by counter-party, preserving first-seen
	// order so results are stable.
	byCounter := make(map[string][]*models.ExpenseShare)
	var counterOrder []string
	for _, share := range shares {
		if share.OwesMemberID == expense.PayerMemberID || share.LeftToPay() <= 0 {
			continue
		}
		if _, seen := byCounter[share.OwesMemberID]; !seen {
			counterOrder = append(counterOrder, share.OwesMemberID)
		}
		byCounter[share.OwesMemberID] = append(byCounter[share.OwesMemberID], share)
	}

	result := &OffsetResult{}
	perOldExpense := make(map[string]money.Cents)
	var oldExpenseOrder []string

	for _, counterID := range counterOrder {
		// Debts P owes toward expenses C paid, oldest first.
		candidates, err := tx.ListOpenShares(ctx, expense.GroupID, expense.PayerMemberID, counterID)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			continue
		}

		for _, newShare := range byCounter[counterID] {
			left := newShare.LeftToPay()
			if left <= 0 {
				continue
			}

			alloc, err := Allocate(ctx, tx, left, candidates)
			if err != nil {
				return nil, err
			}
			if alloc.Applied <= 0 {
				continue
			}

			// The netted amount counts as paid on C's new share.
			newShare.Paid += alloc.Applied
			if err := saveShare(ctx, tx, newShare); err != nil {
				return nil, err
			}
			result.TotalApplied += alloc.Applied

			for _, d := range alloc.Deltas {
				if _, seen := perOldExpense[d.ExpenseID]; !seen {
					oldExpenseOrder = append(oldExpenseOrder, d.ExpenseID)
				}
				perOldExpense[d.ExpenseID] += d.Applied
			}
		}
	}

	// The old expenses were settled by netting, not cash: draw down their
	// payer shares and refresh their settled flags.
	for _, oldID := range oldExpenseOrder {
		if err := ReducePayerSharePaid(ctx, tx, oldID, perOldExpense[oldID]); err != nil {
			return nil, err
		}
		if err := RecomputeExpenseSettled(ctx, tx, oldID); err != nil {
			return nil, err
		}
		result.Details = append(result.Details, OffsetDetail{ExpenseID: oldID, Applied: perOldExpense[oldID]})
	}

	// Part of what P "paid" on the new expense was offset rather than cash.
	if result.TotalApplied > 0 {
		if err := ReducePayerSharePaid(ctx, tx, expense.ID, result.TotalApplied); err != nil {
			return nil, err
		}
	}
	if err := RecomputeExpenseSettled(ctx, tx, expense.ID); err != nil {
		return nil, err
	}

	return result, nil
}
