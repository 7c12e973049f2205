package models

import "github.com/billbuddy/billbuddy/internal/money"

// Payment is the append-only record of a settlement payment between two
// members of a group.
//
// A payment records intent only: the monetary effect lives in the Paid
// fields of the expense shares it settled, which are mutated in the same
// transaction that creates the payment.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group the payment belongs to.
	GroupID string

	// PaidByMemberID is the member who paid (debtor settling up).
	PaidByMemberID string

	// PaidToMemberID is the member who received the money.
	PaidToMemberID string

	// Amount is the payment amount in cents, as reported by the payer.
	Amount money.Cents

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
