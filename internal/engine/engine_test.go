package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
	"github.com/billbuddy/billbuddy/internal/storage/sqlite"
)

// testLedger wires a throwaway SQLite store with one group and a few active
// members, so engine tests exercise the real storage layer end to end.
type testLedger struct {
	store   *sqlite.SQLiteStore
	groupID string
	members map[string]string // display name -> member ID
}

func newTestLedger(t *testing.T, memberNames ...string) *testLedger {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "billbuddy.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	owner := &models.Account{Email: "owner@example.com", FirstName: "Owner", Active: true}
	if err := store.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("failed to create owner account: %v", err)
	}
	group := &models.Group{OwnerAccountID: owner.ID, Name: "Trip", Currency: "USD", Active: true}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	l := &testLedger{store: store, groupID: group.ID, members: make(map[string]string)}
	for _, name := range memberNames {
		acct := &models.Account{Email: name + "@example.com", FirstName: name, Active: true}
		if err := store.CreateAccount(ctx, acct); err != nil {
			t.Fatalf("failed to create account for %s: %v", name, err)
		}
		m, err := store.UpsertMemberByAccount(ctx, group.ID, acct.ID, acct.Email, name)
		if err != nil {
			t.Fatalf("failed to add member %s: %v", name, err)
		}
		l.members[name] = m.ID
	}
	return l
}

func (l *testLedger) member(t *testing.T, name string) string {
	t.Helper()
	id, ok := l.members[name]
	if !ok {
		t.Fatalf("unknown test member %q", name)
	}
	return id
}

// shareSpec declares one member's portion of a test expense.
type shareSpec struct {
	member string
	amount money.Cents
}

// addExpense creates an expense with its shares the way the service layer
// does: the payer's share starts with paid equal to the whole expense amount,
// every other share with paid zero. When offset is true the new shares are
// auto-netted against reciprocal debt.
func (l *testLedger) addExpense(t *testing.T, payer string, amount money.Cents, createdAt int64, specs []shareSpec, offset bool) (string, map[string]string) {
	t.Helper()
	ctx := context.Background()

	expense := &models.Expense{
		GroupID:       l.groupID,
		PayerMemberID: l.member(t, payer),
		Amount:        amount,
		Description:   payer + "'s expense",
		CreatedAt:     createdAt,
	}
	if err := l.store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	shareIDs := make(map[string]string, len(specs))
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		shares := make([]*models.ExpenseShare, 0, len(specs))
		for _, spec := range specs {
			sh := &models.ExpenseShare{
				ExpenseID:    expense.ID,
				OwesMemberID: l.member(t, spec.member),
				Amount:       spec.amount,
				CreatedAt:    createdAt,
			}
			if sh.OwesMemberID == expense.PayerMemberID {
				sh.Paid = expense.Amount
			}
			sh.Status = StatusFor(sh)
			shares = append(shares, sh)
		}
		if err := tx.InsertShares(ctx, shares); err != nil {
			return err
		}
		for i, spec := range specs {
			shareIDs[spec.member] = shares[i].ID
		}
		if offset {
			_, err := AutoOffset(ctx, tx, expense)
			return err
		}
		return RecomputeExpenseSettled(ctx, tx, expense.ID)
	})
	if err != nil {
		t.Fatalf("failed to create shares: %v", err)
	}
	return expense.ID, shareIDs
}

func (l *testLedger) getShare(t *testing.T, shareID string) *models.ExpenseShare {
	t.Helper()
	var share *models.ExpenseShare
	err := l.store.WithinTx(context.Background(), func(tx storage.Tx) error {
		shares, err := tx.GetSharesByIDs(context.Background(), []string{shareID})
		if err != nil {
			return err
		}
		if len(shares) == 1 {
			share = shares[0]
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to load share %s: %v", shareID, err)
	}
	if share == nil {
		t.Fatalf("share %s not found", shareID)
	}
	return share
}

func (l *testLedger) getExpense(t *testing.T, expenseID string) *models.Expense {
	t.Helper()
	expense, err := l.store.GetExpense(context.Background(), expenseID)
	if err != nil {
		t.Fatalf("failed to load expense %s: %v", expenseID, err)
	}
	return expense
}

func (l *testLedger) inTx(t *testing.T, fn func(tx storage.Tx) error) {
	t.Helper()
	if err := l.store.WithinTx(context.Background(), fn); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

// assertShare checks a share's paid amount and derived status in one go.
func assertShare(t *testing.T, share *models.ExpenseShare, wantPaid money.Cents, wantStatus models.ShareStatus) {
	t.Helper()
	if share.Paid != wantPaid {
		t.Errorf("share %s: paid = %s, want %s", share.ID, share.Paid, wantPaid)
	}
	if share.Status != wantStatus {
		t.Errorf("share %s: status = %q, want %q", share.ID, share.Status, wantStatus)
	}
}

// testBase is a fixed anchor for expense timestamps so ordering by
// created_at is deterministic across a test.
var testBase = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC).Unix()
