package engine

import (
	"context"
	"fmt"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// Delta records one share's paid-field change made by the engine.
type Delta struct {
	ShareID   string      `json:"shareId"`
	ExpenseID string      `json:"expenseId"`
	Applied   money.Cents `json:"applied"`
	PrevPaid  money.Cents `json:"prevPaid"`
	NewPaid   money.Cents `json:"newPaid"`
}

// Allocation is the outcome of distributing an amount across shares.
type Allocation struct {
	// Applied is the total credited across all touched shares. Never
	// exceeds the requested amount nor the candidates' combined leftToPay.
	Applied money.Cents
	// Remainder is the part of the amount that found no share to land on.
	// Reported back to the caller, never silently dropped.
	Remainder money.Cents
	// Deltas lists the touched shares in allocation order.
	Deltas []Delta
}

// Allocate distributes amount across candidates in the caller's order,
// crediting each share up to its leftToPay and persisting the new paid value
// before moving on. Candidates must already carry the caller's chosen
// ordering (oldest-expense-first for netting and payments).
//
// Must run inside the caller's transaction: touched shares are persisted
// through tx so later recomputation in the same transaction sees them.
func Allocate(ctx context.Context, tx storage.Tx, amount money.Cents, candidates []*models.ExpenseShare) (*Allocation, error) {
	if amount < 0 {
		return nil, fmt.Errorf("allocation amount must not be negative, got %s", amount)
	}

	alloc := &Allocation{}
	remaining := amount
	for _, share := range candidates {
		if remaining <= 0 {
			break
		}
		toApply := money.Min(remaining, share.LeftToPay())
		if toApply <= 0 {
			continue
		}

		prev := share.Paid
		share.Paid += toApply
		if err := saveShare(ctx, tx, share); err != nil {
			return nil, err
		}

		alloc.Deltas = append(alloc.Deltas, Delta{
			ShareID:   share.ID,
			ExpenseID: share.ExpenseID,
			Applied:   toApply,
			PrevPaid:  prev,
			NewPaid:   share.Paid,
		})
		alloc.Applied += toApply
		remaining -= toApply
	}
	alloc.Remainder = remaining
	return alloc, nil
}
