package engine

import (
	"context"
	"testing"

	"github.com/billbuddy/billbuddy/internal/money"
)

func TestBalancesGroupsAndSorts(t *testing.T) {
	l := newTestLedger(t, "alice", "bob", "carol")

	// Alice is owed by both: Bob over two expenses (12.00 + 6.00), Carol
	// once (25.00). Carol must come first, then Bob, with the per-member
	// share breakdowns underneath.
	l.addExpense(t, "alice", 1200, testBase, []shareSpec{{"bob", 1200}}, false)
	l.addExpense(t, "alice", 600, testBase+30, []shareSpec{{"bob", 600}}, false)
	l.addExpense(t, "alice", 2500, testBase+60, []shareSpec{{"carol", 2500}}, false)

	summary, err := Balances(context.Background(), l.store, l.groupID, l.member(t, "alice"), DirectionOwedToYou)
	if err != nil {
		t.Fatalf("failed to compute balances: %v", err)
	}

	if len(summary.OwedToYou) != 2 {
		t.Fatalf("got %d creditors, want 2", len(summary.OwedToYou))
	}
	if summary.OwedToYou[0].MemberID != l.member(t, "carol") || summary.OwedToYou[0].TotalLeft != 2500 {
		t.Errorf("first entry = %s/%s, want carol with 25.00",
			summary.OwedToYou[0].Name, summary.OwedToYou[0].TotalLeft)
	}
	if summary.OwedToYou[1].MemberID != l.member(t, "bob") || summary.OwedToYou[1].TotalLeft != 1800 {
		t.Errorf("second entry = %s/%s, want bob with 18.00",
			summary.OwedToYou[1].Name, summary.OwedToYou[1].TotalLeft)
	}
	if len(summary.OwedToYou[1].Shares) != 2 {
		t.Errorf("bob's breakdown has %d shares, want 2", len(summary.OwedToYou[1].Shares))
	}
	if summary.TotalOwedToYou != 4300 {
		t.Errorf("TotalOwedToYou = %s, want 43.00", summary.TotalOwedToYou)
	}
	if len(summary.YouOwe) != 0 || summary.TotalYouOwe != 0 {
		t.Errorf("you-owe side populated on an owed-to-you query: %+v", summary.YouOwe)
	}
}

func TestBalancesOmitsSettledCounterparties(t *testing.T) {
	l := newTestLedger(t, "alice", "bob", "carol")

	l.addExpense(t, "alice", 1000, testBase, []shareSpec{{"bob", 1000}}, false)
	l.addExpense(t, "alice", 800, testBase+30, []shareSpec{{"carol", 800}}, false)

	// Bob pays off completely; he must vanish from Alice's list.
	if _, err := l.recordPayment(t, PaymentRequest{
		GroupID:       l.groupID,
		PayerMemberID: l.member(t, "bob"),
		PayeeMemberID: l.member(t, "alice"),
		Amount:        1000,
	}); err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}

	summary, err := Balances(context.Background(), l.store, l.groupID, l.member(t, "alice"), DirectionOwedToYou)
	if err != nil {
		t.Fatalf("failed to compute balances: %v", err)
	}
	if len(summary.OwedToYou) != 1 || summary.OwedToYou[0].MemberID != l.member(t, "carol") {
		t.Errorf("creditors = %+v, want only carol", summary.OwedToYou)
	}
}

func TestBalancesBothDirections(t *testing.T) {
	l := newTestLedger(t, "alice", "bob")

	// Created without netting, so both flows stay open: Bob owes Alice
	// 20.00 and Alice owes Bob 7.00.
	l.addExpense(t, "alice", 2000, testBase, []shareSpec{{"bob", 2000}}, false)
	l.addExpense(t, "bob", 700, testBase+30, []shareSpec{{"alice", 700}}, false)

	summary, err := Balances(context.Background(), l.store, l.groupID, l.member(t, "alice"), DirectionBoth)
	if err != nil {
		t.Fatalf("failed to compute balances: %v", err)
	}
	if summary.TotalOwedToYou != 2000 {
		t.Errorf("TotalOwedToYou = %s, want 20.00", summary.TotalOwedToYou)
	}
	if summary.TotalYouOwe != 700 {
		t.Errorf("TotalYouOwe = %s, want 7.00", summary.TotalYouOwe)
	}

	breakdown := summary.YouOwe[0].Shares
	if len(breakdown) != 1 || breakdown[0].LeftToPay != 700 {
		t.Errorf("you-owe breakdown = %+v, want one 7.00 share", breakdown)
	}
}

func TestBalancesEmptyGroup(t *testing.T) {
	l := newTestLedger(t, "alice", "bob")

	summary, err := Balances(context.Background(), l.store, l.groupID, l.member(t, "alice"), DirectionBoth)
	if err != nil {
		t.Fatalf("failed to compute balances: %v", err)
	}
	if len(summary.YouOwe) != 0 || len(summary.OwedToYou) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if !money.IsZero(summary.TotalYouOwe) || !money.IsZero(summary.TotalOwedToYou) {
		t.Errorf("expected zero totals, got %s / %s", summary.TotalYouOwe, summary.TotalOwedToYou)
	}
}
