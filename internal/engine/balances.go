package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// Direction selects which side of the ledger a balance query returns.
type Direction string

const (
	DirectionYouOwe    Direction = "you-owe"
	DirectionOwedToYou Direction = "owed-to-you"
	DirectionBoth      Direction = "both"
)

// ShareBreakdown is one contributing share in a balance drill-down.
type ShareBreakdown struct {
	ShareID     string      `json:"shareId"`
	ExpenseID   string      `json:"expenseId"`
	Description string      `json:"description"`
	Date        int64       `json:"date"`
	Amount      money.Cents `json:"amount"`
	Paid        money.Cents `json:"paid"`
	LeftToPay   money.Cents `json:"leftToPay"`
}

// MemberBalance is the total outstanding between the viewer and one
// counter-party, with the shares that make it up.
type MemberBalance struct {
	MemberID  string           `json:"memberId"`
	Name      string           `json:"name"`
	Email     string           `json:"email,omitempty"`
	TotalLeft money.Cents      `json:"totalLeft"`
	Shares    []ShareBreakdown `json:"shares"`
}

// BalanceSummary is the viewer's full picture: who they owe and who owes
// them, each side sorted by total descending.
type BalanceSummary struct {
	YouOwe         []MemberBalance `json:"youOwe"`
	OwedToYou      []MemberBalance `json:"owedToYou"`
	TotalYouOwe    money.Cents     `json:"totalYouOwe"`
	TotalOwedToYou money.Cents     `json:"totalOwedToYou"`
}

// Balances is the read-only projection over the share ledger for one viewing
// member. It reads only amount/paid — netting shows up transparently as
// already-adjusted paid values. The reads are not a transactional snapshot;
// a concurrent writer may be observed mid-transition.
func Balances(ctx context.Context, store storage.Store, groupID, memberID string, dir Direction) (*BalanceSummary, error) {
	summary := &BalanceSummary{}

	if dir == DirectionYouOwe || dir == DirectionBoth {
		rows, err := store.ListOwedBy(ctx, groupID, memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load you-owe rows: %w", err)
		}
		summary.YouOwe, summary.TotalYouOwe = aggregate(rows)
	}
	if dir == DirectionOwedToYou || dir == DirectionBoth {
		rows, err := store.ListOwedTo(ctx, groupID, memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owed-to-you rows: %w", err)
		}
		summary.OwedToYou, summary.TotalOwedToYou = aggregate(rows)
	}
	return summary, nil
}

// aggregate groups balance rows by counter-party, dropping zero totals and
// sorting descending by total owed.
func aggregate(rows []storage.BalanceRow) ([]MemberBalance, money.Cents) {
	byMember := make(map[string]*MemberBalance)
	var order []string
	var total money.Cents

	for _, r := range rows {
		share := storageRowToBreakdown(r)
		if share.LeftToPay <= 0 {
			continue
		}

		mb, ok := byMember[r.CounterMemberID]
		if !ok {
			mb = &MemberBalance{
				MemberID: r.CounterMemberID,
				Name:     r.CounterName,
				Email:    r.CounterEmail,
			}
			byMember[r.CounterMemberID] = mb
			order = append(order, r.CounterMemberID)
		}
		mb.TotalLeft += share.LeftToPay
		mb.Shares = append(mb.Shares, share)
		total += share.LeftToPay
	}

	balances := make([]MemberBalance, 0, len(order))
	for _, id := range order {
		mb := byMember[id]
		if money.IsZero(mb.TotalLeft) {
			continue
		}
		balances = append(balances, *mb)
	}
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].TotalLeft > balances[j].TotalLeft
	})
	return balances, total
}

func storageRowToBreakdown(r storage.BalanceRow) ShareBreakdown {
	left := r.Amount - r.Paid
	if left < 0 {
		left = 0
	}
	return ShareBreakdown{
		ShareID:     r.ShareID,
		ExpenseID:   r.ExpenseID,
		Description: r.Description,
		Date:        r.ExpenseCreatedAt,
		Amount:      r.Amount,
		Paid:        r.Paid,
		LeftToPay:   left,
	}
}
