package engine

import (
	"context"
	"testing"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		amount money.Cents
		paid   money.Cents
		want   models.ShareStatus
	}{
		{"untouched", 1000, 0, models.StatusNotPaid},
		{"part paid", 1000, 400, models.StatusPartiallyPaid},
		{"exactly paid", 1000, 1000, models.StatusFullyPaid},
		{"overpaid payer share", 1000, 2500, models.StatusFullyPaid},
		{"zero amount", 0, 0, models.StatusFullyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := &models.ExpenseShare{Amount: tt.amount, Paid: tt.paid}
			if got := StatusFor(share); got != tt.want {
				t.Errorf("StatusFor(amount=%s, paid=%s) = %q, want %q", tt.amount, tt.paid, got, tt.want)
			}
		})
	}
}

func TestRecomputeExpenseSettled(t *testing.T) {
	l := newTestLedger(t, "alice", "bob")
	ctx := context.Background()

	expenseID, ids := l.addExpense(t, "alice", 2000, testBase,
		[]shareSpec{{"alice", 1000}, {"bob", 1000}}, false)

	if l.getExpense(t, expenseID).Settled {
		t.Fatal("expense settled while a share is still open")
	}

	// Settle bob's share, then recompute twice: the second run must be a
	// no-op, not a flip.
	l.inTx(t, func(tx storage.Tx) error {
		shares, err := tx.GetSharesByIDs(ctx, []string{ids["bob"]})
		if err != nil {
			return err
		}
		shares[0].Paid = shares[0].Amount
		if err := saveShare(ctx, tx, shares[0]); err != nil {
			return err
		}
		if err := RecomputeExpenseSettled(ctx, tx, expenseID); err != nil {
			return err
		}
		return RecomputeExpenseSettled(ctx, tx, expenseID)
	})

	if !l.getExpense(t, expenseID).Settled {
		t.Error("expense not settled after every share reached fully paid")
	}
}

func TestReducePayerSharePaid(t *testing.T) {
	tests := []struct {
		name     string
		reduceBy money.Cents
		wantPaid money.Cents
	}{
		{"partial reduction", 300, 1700},
		{"reduction floors at share amount", 5000, 1000},
		{"zero is a no-op", 0, 2000},
		{"negative is a no-op", -100, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t, "alice", "bob")
			ctx := context.Background()

			// Payer share starts at paid 20.00 on a 10.00 portion.
			expenseID, ids := l.addExpense(t, "alice", 2000, testBase,
				[]shareSpec{{"alice", 1000}, {"bob", 1000}}, false)

			l.inTx(t, func(tx storage.Tx) error {
				return ReducePayerSharePaid(ctx, tx, expenseID, tt.reduceBy)
			})

			share := l.getShare(t, ids["alice"])
			assertShare(t, share, tt.wantPaid, models.StatusFullyPaid)
		})
	}
}

func TestReducePayerSharePaidWithoutPayerShare(t *testing.T) {
	l := newTestLedger(t, "alice", "bob")
	ctx := context.Background()

	// Expense where the payer carries no share of their own.
	expenseID, _ := l.addExpense(t, "alice", 1000, testBase,
		[]shareSpec{{"bob", 1000}}, false)

	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		return ReducePayerSharePaid(ctx, tx, expenseID, 500)
	})
	if err != nil {
		t.Fatalf("expected missing payer share to be tolerated, got %v", err)
	}
}
