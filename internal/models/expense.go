package models

import "github.com/billbuddy/billbuddy/internal/money"

// ShareStatus is the derived payment status of an expense share.
type ShareStatus string

const (
	StatusNotPaid       ShareStatus = "Not Paid"
	StatusPartiallyPaid ShareStatus = "Partially Paid"
	StatusFullyPaid     ShareStatus = "Fully Paid"
)

// Expense is money one member paid on behalf of the group.
//
// Immutable once created, except for Settled which is derived from the
// expense's shares and recomputed by the engine.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// PayerMemberID is the member who fronted the money.
	PayerMemberID string

	// Amount is the full expense amount in cents.
	Amount money.Cents

	// Description is a short free-form label.
	Description string

	// Settled is true iff every share of the expense is fully paid.
	Settled bool

	// CreatedAt is the Unix timestamp when the expense was created.
	// It orders candidate shares during netting and payment allocation
	// (oldest expense retired first).
	CreatedAt int64
}

// ExpenseShare is one member's portion of one expense.
//
// The payer's own share is created with Paid set to the full expense amount:
// it is the bookkeeping target that netting and payments later reduce. For
// every other share Paid starts at zero and only ever grows, bounded by
// Amount.
type ExpenseShare struct {
	// ID is the unique identifier for the share (UUID format).
	ID string

	// ExpenseID is the parent expense.
	ExpenseID string

	// OwesMemberID is the member who owes this portion.
	OwesMemberID string

	// Amount is this member's allocated portion of the expense, in cents.
	Amount money.Cents

	// Paid is the cumulative amount credited toward this share, in cents.
	Paid money.Cents

	// Status is derived from Amount and Paid; never set by callers.
	Status ShareStatus

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// LeftToPay is the outstanding balance of the share: Amount - Paid, floored
// at zero. Always derived, never persisted.
func (s *ExpenseShare) LeftToPay() money.Cents {
	left := s.Amount - s.Paid
	if left < 0 {
		return 0
	}
	return left
}
