package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/storage"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAccounts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	t.Run("CreateAccount generates ID and lowercases email", func(t *testing.T) {
		account := &models.Account{Email: "Alice@Example.COM", FirstName: "Alice", Active: true}
		if err := store.CreateAccount(ctx, account); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if account.ID == "" {
			t.Error("Expected account ID to be generated")
		}

		got, err := store.GetAccountByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetAccountByEmail failed: %v", err)
		}
		if got.ID != account.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, account.ID)
		}
	})

	t.Run("GetAccountByID wraps ErrNotFound", func(t *testing.T) {
		_, err := store.GetAccountByID(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Duplicate email rejected", func(t *testing.T) {
		if err := store.CreateAccount(ctx, &models.Account{Email: "alice@example.com"}); err == nil {
			t.Error("Expected duplicate email to fail")
		}
	})
}

func TestGroupsAndMembers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	owner := &models.Account{Email: "owner@example.com", FirstName: "Olive", Active: true}
	if err := store.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	group := &models.Group{OwnerAccountID: owner.ID, Name: "Flat", Currency: "EUR", InviteToken: "tok-1", Active: true}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("GetGroupByInviteToken", func(t *testing.T) {
		got, err := store.GetGroupByInviteToken(ctx, "tok-1")
		if err != nil {
			t.Fatalf("GetGroupByInviteToken failed: %v", err)
		}
		if got.ID != group.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, group.ID)
		}
		if _, err := store.GetGroupByInviteToken(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown token, got %v", err)
		}
	})

	t.Run("UpsertMemberByAccount is idempotent", func(t *testing.T) {
		m1, err := store.UpsertMemberByAccount(ctx, group.ID, owner.ID, owner.Email, "Olive")
		if err != nil {
			t.Fatalf("UpsertMemberByAccount failed: %v", err)
		}
		m2, err := store.UpsertMemberByAccount(ctx, group.ID, owner.ID, owner.Email, "Olive")
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if m1.ID != m2.ID {
			t.Errorf("Upsert created a second row: %s vs %s", m1.ID, m2.ID)
		}
		if !m2.Active {
			t.Error("Upserted member should be active")
		}
	})

	t.Run("Invited member stays inactive until claimed", func(t *testing.T) {
		invited, err := store.UpsertInvitedMember(ctx, group.ID, "guest@example.com", "Guest")
		if err != nil {
			t.Fatalf("UpsertInvitedMember failed: %v", err)
		}
		if invited.Active {
			t.Error("Invited member should start inactive")
		}
		if invited.AccountID != "" {
			t.Errorf("Invited member should have no account, got %q", invited.AccountID)
		}

		guest := &models.Account{Email: "guest@example.com", FirstName: "Gus", Active: true}
		if err := store.CreateAccount(ctx, guest); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		claimed, groupIDs, err := store.ClaimInvites(ctx, guest.ID, guest.Email)
		if err != nil {
			t.Fatalf("ClaimInvites failed: %v", err)
		}
		if claimed != 1 || len(groupIDs) != 1 || groupIDs[0] != group.ID {
			t.Errorf("ClaimInvites = (%d, %v), want one claim in the group", claimed, groupIDs)
		}

		member, err := store.GetMemberByAccount(ctx, group.ID, guest.ID)
		if err != nil {
			t.Fatalf("GetMemberByAccount failed: %v", err)
		}
		if !member.Active || member.ID != invited.ID {
			t.Errorf("Claim should activate the existing row, got %+v", member)
		}
	})

	t.Run("DeactivateMembers reports affected groups", func(t *testing.T) {
		member, err := store.GetMemberByAccount(ctx, group.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetMemberByAccount failed: %v", err)
		}
		n, groupIDs, err := store.DeactivateMembers(ctx, []string{member.ID})
		if err != nil {
			t.Fatalf("DeactivateMembers failed: %v", err)
		}
		if n != 1 || len(groupIDs) != 1 || groupIDs[0] != group.ID {
			t.Errorf("DeactivateMembers = (%d, %v), want one row in the group", n, groupIDs)
		}

		count, err := store.CountActiveMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("CountActiveMembers failed: %v", err)
		}
		if count != 1 { // the claimed guest remains
			t.Errorf("Active members = %d, want 1", count)
		}
	})

	t.Run("ListGroupsByAccount honors the filter", func(t *testing.T) {
		archived := &models.Group{OwnerAccountID: owner.ID, Name: "Old Trip", Currency: "USD", Active: false}
		if err := store.CreateGroup(ctx, archived); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if _, err := store.UpsertMemberByAccount(ctx, archived.ID, owner.ID, owner.Email, "Olive"); err != nil {
			t.Fatalf("UpsertMemberByAccount failed: %v", err)
		}

		got, err := store.ListGroupsByAccount(ctx, owner.ID, storage.GroupsArchived)
		if err != nil {
			t.Fatalf("ListGroupsByAccount failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != archived.ID {
			t.Errorf("Archived filter returned %d groups, want just the archived one", len(got))
		}
	})
}

func TestOpenShareOrdering(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	owner := &models.Account{Email: "o@example.com", Active: true}
	if err := store.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	group := &models.Group{OwnerAccountID: owner.ID, Name: "G", Currency: "USD", Active: true}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	alice, err := store.UpsertMemberByAccount(ctx, group.ID, owner.ID, owner.Email, "Alice")
	if err != nil {
		t.Fatalf("UpsertMemberByAccount failed: %v", err)
	}
	bobAcct := &models.Account{Email: "b@example.com", Active: true}
	if err := store.CreateAccount(ctx, bobAcct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	bob, err := store.UpsertMemberByAccount(ctx, group.ID, bobAcct.ID, bobAcct.Email, "Bob")
	if err != nil {
		t.Fatalf("UpsertMemberByAccount failed: %v", err)
	}

	// Three expenses by Alice, created newest-first to prove the ordering
	// comes from created_at and not insertion order.
	createdAts := []int64{3000, 1000, 2000}
	for _, ts := range createdAts {
		expense := &models.Expense{
			GroupID:       group.ID,
			PayerMemberID: alice.ID,
			Amount:        100,
			Description:   "x",
			CreatedAt:     ts,
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		err = store.WithinTx(ctx, func(tx storage.Tx) error {
			return tx.InsertShares(ctx, []*models.ExpenseShare{
				{ExpenseID: expense.ID, OwesMemberID: bob.ID, Amount: 100, Status: models.StatusNotPaid},
			})
		})
		if err != nil {
			t.Fatalf("InsertShares failed: %v", err)
		}
	}

	err = store.WithinTx(ctx, func(tx storage.Tx) error {
		open, err := tx.ListOpenShares(ctx, group.ID, bob.ID, alice.ID)
		if err != nil {
			return err
		}
		if len(open) != 3 {
			t.Fatalf("Open shares = %d, want 3", len(open))
		}
		prev := int64(0)
		for _, sh := range open {
			expense, err := tx.GetExpense(ctx, sh.ExpenseID)
			if err != nil {
				return err
			}
			if expense.CreatedAt < prev {
				t.Errorf("Shares out of order: expense at %d after %d", expense.CreatedAt, prev)
			}
			prev = expense.CreatedAt
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	owner := &models.Account{Email: "o@example.com", Active: true}
	if err := store.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	group := &models.Group{OwnerAccountID: owner.ID, Name: "G", Currency: "USD", Active: true}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	member, err := store.UpsertMemberByAccount(ctx, group.ID, owner.ID, owner.Email, "O")
	if err != nil {
		t.Fatalf("UpsertMemberByAccount failed: %v", err)
	}

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.InsertPayment(ctx, &models.Payment{
			GroupID:        group.ID,
			PaidByMemberID: member.ID,
			PaidToMemberID: member.ID,
			Amount:         100,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the inner error back, got %v", err)
	}

	payments, err := store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListPaymentsByGroup failed: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("Found %d payments after rollback, want 0", len(payments))
	}
}
