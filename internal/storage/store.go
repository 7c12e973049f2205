// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
)

// ErrNotFound is returned when a referenced record does not exist.
// Implementations wrap it with detail; callers match with errors.Is.
var ErrNotFound = errors.New("not found")

// MemberInfo is a member with its account identity resolved for display.
// When the member is claimed, name and email come from the account; otherwise
// from the invite.
type MemberInfo struct {
	ID        string
	AccountID string
	Name      string
	Email     string
	Active    bool
}

// ExpenseInfo is an expense with its payer's display name resolved.
type ExpenseInfo struct {
	Expense   models.Expense
	PayerName string
}

// ShareInfo is an expense share with its ower's identity resolved.
type ShareInfo struct {
	Share     models.ExpenseShare
	OwerName  string
	OwerEmail string
}

// PaymentInfo is a payment with both member display names resolved.
type PaymentInfo struct {
	Payment    models.Payment
	PaidByName string
	PaidToName string
}

// BalanceRow is one unsettled share joined with its parent expense and the
// counter-party identity, as consumed by the balance aggregator. For a
// "you owe" query the counter-party is the expense payer; for "owed to you"
// it is the owing member.
type BalanceRow struct {
	ShareID          string
	ExpenseID        string
	Description      string
	ExpenseCreatedAt int64
	CounterMemberID  string
	CounterName      string
	CounterEmail     string
	Amount           money.Cents
	Paid             money.Cents
}

// Tx is the transactional view of the ledger. Every engine write path
// receives a Tx explicitly, so a single call graph is guaranteed to operate
// within one atomic scope — either all of its mutations commit or none do.
type Tx interface {
	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// InsertShares persists new shares, generating IDs and timestamps when
	// they are unset.
	InsertShares(ctx context.Context, shares []*models.ExpenseShare) error

	// ListSharesByExpense returns all shares of an expense in insertion order.
	ListSharesByExpense(ctx context.Context, expenseID string) ([]*models.ExpenseShare, error)

	// GetSharesByIDs returns the named shares preserving the order of ids.
	// Unknown ids are skipped, not errors.
	GetSharesByIDs(ctx context.Context, ids []string) ([]*models.ExpenseShare, error)

	// ListOpenShares returns the candidate shares for netting and payment
	// allocation: shares owed by owesMemberID on unsettled expenses paid by
	// payeeMemberID in the group, with paid < amount, ordered
	// oldest-expense-first.
	ListOpenShares(ctx context.Context, groupID, owesMemberID, payeeMemberID string) ([]*models.ExpenseShare, error)

	// GetPayerShare returns the expense payer's own share on the expense,
	// or ErrNotFound if the expense has no payer share.
	GetPayerShare(ctx context.Context, expenseID string) (*models.ExpenseShare, error)

	// UpdateSharePaid persists a share's new paid amount and derived status.
	UpdateSharePaid(ctx context.Context, shareID string, paid money.Cents, status models.ShareStatus) error

	// CountOpenShares returns the number of shares of the expense whose
	// status is not Fully Paid.
	CountOpenShares(ctx context.Context, expenseID string) (int, error)

	// SetExpenseSettled persists the derived settled flag.
	SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error

	// InsertPayment persists a new payment intent record.
	InsertPayment(ctx context.Context, p *models.Payment) error

	// GetMember retrieves a member by ID.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)
}

// Store defines the persistence operations for BillBuddy. The write paths of
// the settlement engine go through WithinTx; everything else is a plain read
// or a single-record write.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)

	// Groups
	CreateGroup(ctx context.Context, g *models.Group) error
	UpdateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByInviteToken(ctx context.Context, token string) (*models.Group, error)
	// ListGroupsByAccount returns groups the account is an active member of,
	// optionally filtered to active or archived groups.
	ListGroupsByAccount(ctx context.Context, accountID string, filter GroupFilter) ([]*models.Group, error)
	SetGroupActive(ctx context.Context, groupID string, active bool) error
	CountActiveMembers(ctx context.Context, groupID string) (int, error)

	// Members
	// UpsertMemberByAccount creates or reactivates the member row for
	// (group, account). Used when inviting a known account and when an
	// invite token is accepted.
	UpsertMemberByAccount(ctx context.Context, groupID, accountID, email, name string) (*models.Member, error)
	// UpsertInvitedMember creates or refreshes the unclaimed member row for
	// (group, email). The member stays inactive until claimed.
	UpsertInvitedMember(ctx context.Context, groupID, email, name string) (*models.Member, error)
	// ClaimInvites links every unclaimed member with the given email to the
	// account and activates them. Returns the number of claimed rows and the
	// affected group IDs.
	ClaimInvites(ctx context.Context, accountID, email string) (int, []string, error)
	GetMemberByAccount(ctx context.Context, groupID, accountID string) (*models.Member, error)
	GetMember(ctx context.Context, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string, activeOnly bool) ([]MemberInfo, error)
	// DeactivateMembers marks the members inactive and returns the affected
	// group IDs so callers can recompute group activity.
	DeactivateMembers(ctx context.Context, memberIDs []string) (int, []string, error)

	// Expenses and payments (read paths; ledger writes go through Tx)
	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]ExpenseInfo, error)
	ListExpenseShares(ctx context.Context, expenseID string) ([]ShareInfo, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]PaymentInfo, error)

	// Balance aggregation reads. Both return only shares with paid < amount
	// on unsettled expenses.
	ListOwedBy(ctx context.Context, groupID, memberID string) ([]BalanceRow, error)
	ListOwedTo(ctx context.Context, groupID, memberID string) ([]BalanceRow, error)

	// WithinTx runs fn inside one atomic transaction. Any error from fn
	// rolls the whole transaction back.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// GroupFilter selects which groups ListGroupsByAccount returns.
type GroupFilter string

const (
	GroupsAll      GroupFilter = "all"
	GroupsActive   GroupFilter = "active"
	GroupsArchived GroupFilter = "archived"
)
