package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billbuddy/billbuddy/internal/cache"
	"github.com/billbuddy/billbuddy/internal/engine"
	"github.com/billbuddy/billbuddy/internal/mailer"
	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
)

// ledgerEnv is a full service stack over a throwaway store: one group with
// two active members.
type ledgerEnv struct {
	ledger  *LedgerService
	groups  *GroupService
	groupID string
	alice   string // member IDs
	bob     string
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	ctx := context.Background()
	store := newTestStore(t)

	groups := NewGroupService(store, mailer.LogMailer{})
	ledger := NewLedgerService(store, cache.NewInMemoryCache(time.Minute))

	aliceAcct := newAccount(t, store, "alice@example.com")
	bobAcct := newAccount(t, store, "bob@example.com")

	group, err := groups.CreateGroup(ctx, aliceAcct.ID, CreateGroupRequest{Name: "Trip"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := groups.AcceptInviteToken(ctx, bobAcct.ID, group.InviteToken); err != nil {
		t.Fatalf("AcceptInviteToken failed: %v", err)
	}

	alice, err := groups.MemberForAccount(ctx, group.ID, aliceAcct.ID)
	if err != nil {
		t.Fatalf("MemberForAccount failed: %v", err)
	}
	bob, err := groups.MemberForAccount(ctx, group.ID, bobAcct.ID)
	if err != nil {
		t.Fatalf("MemberForAccount failed: %v", err)
	}

	return &ledgerEnv{
		ledger:  ledger,
		groups:  groups,
		groupID: group.ID,
		alice:   alice.ID,
		bob:     bob.ID,
	}
}

func (e *ledgerEnv) mustCreateExpense(t *testing.T, payerID string, amount money.Cents) *models.Expense {
	t.Helper()
	expense, err := e.ledger.CreateExpense(context.Background(), CreateExpenseRequest{
		GroupID:       e.groupID,
		PayerMemberID: payerID,
		Amount:        amount,
		Description:   "groceries",
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return expense
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CreateExpenseRequest
		wantErr error
	}{
		{
			name: "zero amount",
			req: CreateExpenseRequest{
				GroupID: env.groupID, PayerMemberID: env.alice, Amount: 0, Description: "x",
			},
			wantErr: ErrValidation,
		},
		{
			name: "missing description",
			req: CreateExpenseRequest{
				GroupID: env.groupID, PayerMemberID: env.alice, Amount: 100,
			},
			wantErr: ErrValidation,
		},
		{
			name: "payer from another group",
			req: CreateExpenseRequest{
				GroupID: env.groupID, PayerMemberID: "stranger", Amount: 100, Description: "x",
			},
			wantErr: nil, // storage.ErrNotFound, checked below as non-nil
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.CreateExpense(ctx, tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateShares(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	expense := env.mustCreateExpense(t, env.alice, 3000)

	t.Run("conservation enforced", func(t *testing.T) {
		_, err := env.ledger.CreateShares(ctx, expense.ID, []ShareInput{
			{MemberID: env.alice, Amount: 1000},
			{MemberID: env.bob, Amount: 1000},
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("short shares: error = %v, want ErrValidation", err)
		}
	})

	t.Run("payer share starts fully paid", func(t *testing.T) {
		result, err := env.ledger.CreateShares(ctx, expense.ID, []ShareInput{
			{MemberID: env.alice, Amount: 1500},
			{MemberID: env.bob, Amount: 1500},
		})
		if err != nil {
			t.Fatalf("CreateShares failed: %v", err)
		}

		for _, sh := range result.Shares {
			if sh.OwesMemberID == env.alice {
				if sh.Paid != 3000 || sh.Status != models.StatusFullyPaid {
					t.Errorf("payer share = paid %s status %s, want full expense amount", sh.Paid, sh.Status)
				}
			} else if sh.Paid != 0 || sh.Status != models.StatusNotPaid {
				t.Errorf("debtor share = paid %s status %s, want untouched", sh.Paid, sh.Status)
			}
		}
	})

	t.Run("second split rejected", func(t *testing.T) {
		_, err := env.ledger.CreateShares(ctx, expense.ID, []ShareInput{
			{MemberID: env.bob, Amount: 3000},
		})
		if !errors.Is(err, ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})
}

func TestCreateSharesRunsNetting(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	first := env.mustCreateExpense(t, env.alice, 10000)
	if _, err := env.ledger.CreateShares(ctx, first.ID, []ShareInput{
		{MemberID: env.alice, Amount: 5000},
		{MemberID: env.bob, Amount: 5000},
	}); err != nil {
		t.Fatalf("CreateShares failed: %v", err)
	}

	second := env.mustCreateExpense(t, env.bob, 3000)
	result, err := env.ledger.CreateShares(ctx, second.ID, []ShareInput{
		{MemberID: env.bob, Amount: 1500},
		{MemberID: env.alice, Amount: 1500},
	})
	if err != nil {
		t.Fatalf("CreateShares failed: %v", err)
	}

	if result.Offset.TotalApplied != 1500 {
		t.Errorf("offset applied %s, want 15.00", result.Offset.TotalApplied)
	}

	// Net position after the offset: Bob owes Alice 35.00.
	summary, err := env.ledger.GetBalances(ctx, env.groupID, env.bob, engine.DirectionYouOwe)
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if summary.TotalYouOwe != 3500 {
		t.Errorf("TotalYouOwe = %s, want 35.00", summary.TotalYouOwe)
	}
}

func TestRecordPaymentService(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	t.Run("nothing to settle maps to conflict", func(t *testing.T) {
		_, err := env.ledger.RecordPayment(ctx, RecordPaymentRequest{
			GroupID:       env.groupID,
			PayerMemberID: env.bob,
			PayeeMemberID: env.alice,
			Amount:        500,
		})
		if !errors.Is(err, ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("same payer and payee rejected", func(t *testing.T) {
		_, err := env.ledger.RecordPayment(ctx, RecordPaymentRequest{
			GroupID:       env.groupID,
			PayerMemberID: env.bob,
			PayeeMemberID: env.bob,
			Amount:        500,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("payment settles and refreshes balances", func(t *testing.T) {
		expense := env.mustCreateExpense(t, env.alice, 2000)
		if _, err := env.ledger.CreateShares(ctx, expense.ID, []ShareInput{
			{MemberID: env.alice, Amount: 1000},
			{MemberID: env.bob, Amount: 1000},
		}); err != nil {
			t.Fatalf("CreateShares failed: %v", err)
		}

		// Prime the cache, then pay: the write must invalidate it so the
		// next read sees the settled state.
		before, err := env.ledger.GetBalances(ctx, env.groupID, env.bob, engine.DirectionYouOwe)
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if before.TotalYouOwe != 1000 {
			t.Fatalf("TotalYouOwe = %s, want 10.00", before.TotalYouOwe)
		}

		result, err := env.ledger.RecordPayment(ctx, RecordPaymentRequest{
			GroupID:       env.groupID,
			PayerMemberID: env.bob,
			PayeeMemberID: env.alice,
			Amount:        1000,
		})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if result.AmountApplied != 1000 {
			t.Errorf("AmountApplied = %s, want 10.00", result.AmountApplied)
		}

		after, err := env.ledger.GetBalances(ctx, env.groupID, env.bob, engine.DirectionYouOwe)
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if after.TotalYouOwe != 0 {
			t.Errorf("TotalYouOwe after settling = %s, want zero", after.TotalYouOwe)
		}
	})
}

func TestGetExpenseSharesUnknownExpense(t *testing.T) {
	env := newLedgerEnv(t)

	_, err := env.ledger.GetExpenseShares(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for unknown expense")
	}
}
