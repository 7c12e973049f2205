package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/billbuddy/billbuddy/internal/cache"
	"github.com/billbuddy/billbuddy/internal/engine"
	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// LedgerService exposes the expense/payment operations: creating expenses
// and their shares (with automatic netting), recording payments, and the
// balance and listing reads.
type LedgerService struct {
	store storage.Store
	cache cache.BalanceCache
}

// NewLedgerService creates a LedgerService with the given storage and
// balance cache.
func NewLedgerService(store storage.Store, balanceCache cache.BalanceCache) *LedgerService {
	return &LedgerService{store: store, cache: balanceCache}
}

// CreateExpenseRequest describes a new expense without its shares.
type CreateExpenseRequest struct {
	GroupID       string
	PayerMemberID string
	Amount        money.Cents
	Description   string
}

// CreateExpense validates and persists a new expense. Shares are added
// separately with CreateShares; until then the expense carries no debt.
func (s *LedgerService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*models.Expense, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", ErrValidation)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	group, err := s.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.Active {
		return nil, fmt.Errorf("%w: group is archived", ErrConflict)
	}
	payer, err := s.store.GetMember(ctx, req.PayerMemberID)
	if err != nil {
		return nil, err
	}
	if payer.GroupID != group.ID {
		return nil, fmt.Errorf("%w: payer belongs to a different group", ErrValidation)
	}
	if !payer.Active {
		return nil, fmt.Errorf("%w: payer is not an active member", ErrConflict)
	}

	expense := &models.Expense{
		GroupID:       group.ID,
		PayerMemberID: payer.ID,
		Amount:        req.Amount,
		Description:   req.Description,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	expensesCreated.Inc()
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"amount", expense.Amount,
	)
	return expense, nil
}

// ShareInput is one member's portion of an expense being split.
type ShareInput struct {
	MemberID string
	Amount   money.Cents
}

// SharesResult reports the created shares and what netting did to them.
type SharesResult struct {
	Shares []*models.ExpenseShare
	Offset *engine.OffsetResult
}

// CreateShares splits an expense across members and nets the new debts
// against reciprocal ones, all in one transaction.
//
// The share amounts must sum to the expense amount. The payer's own share
// starts fully paid (they fronted the money); it is the credit that later
// payments and netting draw down.
func (s *LedgerService) CreateShares(ctx context.Context, expenseID string, inputs []ShareInput) (*SharesResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one share is required", ErrValidation)
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListExpenseShares(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: expense already has shares", ErrConflict)
	}

	var sum money.Cents
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.Amount <= 0 {
			return nil, fmt.Errorf("%w: share amount must be positive", ErrValidation)
		}
		if seen[in.MemberID] {
			return nil, fmt.Errorf("%w: duplicate share for member %s", ErrValidation, in.MemberID)
		}
		seen[in.MemberID] = true

		member, err := s.store.GetMember(ctx, in.MemberID)
		if err != nil {
			return nil, err
		}
		if member.GroupID != expense.GroupID {
			return nil, fmt.Errorf("%w: member %s belongs to a different group", ErrValidation, in.MemberID)
		}
		sum += in.Amount
	}
	if !money.Equal(sum, expense.Amount) {
		return nil, fmt.Errorf("%w: shares sum to %s, expense is %s", ErrValidation, sum, expense.Amount)
	}

	result := &SharesResult{}
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		shares := make([]*models.ExpenseShare, 0, len(inputs))
		for _, in := range inputs {
			sh := &models.ExpenseShare{
				ExpenseID:    expense.ID,
				OwesMemberID: in.MemberID,
				Amount:       in.Amount,
			}
			if in.MemberID == expense.PayerMemberID {
				sh.Paid = expense.Amount
			}
			sh.Status = engine.StatusFor(sh)
			shares = append(shares, sh)
		}
		if err := tx.InsertShares(ctx, shares); err != nil {
			return err
		}
		result.Shares = shares

		offset, err := engine.AutoOffset(ctx, tx, expense)
		if err != nil {
			return err
		}
		result.Offset = offset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateGroup(ctx, expense.GroupID)
	offsetCentsApplied.Add(float64(result.Offset.TotalApplied))
	slog.Info("Shares created",
		"expense_id", expense.ID,
		"shares", len(result.Shares),
		"offset_applied", result.Offset.TotalApplied,
	)
	return result, nil
}

// RecordPaymentRequest describes one settlement payment.
type RecordPaymentRequest struct {
	GroupID        string
	PayerMemberID  string
	PayeeMemberID  string
	Amount         money.Cents
	// ShareIDs, when set, marks exactly those shares fully paid instead of
	// allocating Amount oldest-first.
	ShareIDs []string
}

// RecordPayment records a payment and settles shares with it. The payment
// record and every share mutation share one transaction; a failed allocation
// leaves no payment behind.
func (s *LedgerService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*engine.PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if req.PayerMemberID == req.PayeeMemberID {
		return nil, fmt.Errorf("%w: payer and payee must differ", ErrValidation)
	}

	var result *engine.PaymentResult
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		result, err = engine.RecordPayment(ctx, tx, engine.PaymentRequest{
			GroupID:       req.GroupID,
			PayerMemberID: req.PayerMemberID,
			PayeeMemberID: req.PayeeMemberID,
			Amount:        req.Amount,
			ShareIDs:      req.ShareIDs,
		})
		return err
	})
	switch {
	case errors.Is(err, engine.ErrNoOpenShares), errors.Is(err, engine.ErrInactiveMember):
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, engine.ErrWrongGroup):
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	case err != nil:
		return nil, err
	}

	s.cache.InvalidateGroup(ctx, req.GroupID)
	paymentsRecorded.Inc()
	if result.AmountApplied != result.AmountSent {
		slog.Warn("Payment amount differs from settled amount",
			"payment_id", result.PaymentID,
			"amount_sent", result.AmountSent,
			"amount_applied", result.AmountApplied,
		)
	}
	slog.Info("Payment recorded",
		"payment_id", result.PaymentID,
		"group_id", req.GroupID,
		"amount", req.Amount,
		"applied", result.AmountApplied,
	)
	return result, nil
}

// GetBalances returns the member's balance summary, served from cache when a
// fresh entry exists.
func (s *LedgerService) GetBalances(ctx context.Context, groupID, memberID string, dir engine.Direction) (*engine.BalanceSummary, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != groupID {
		return nil, fmt.Errorf("%w: member belongs to a different group", ErrValidation)
	}

	if summary, ok := s.cache.Get(ctx, groupID, memberID, dir); ok {
		balanceCacheHits.Inc()
		return summary, nil
	}
	balanceCacheMisses.Inc()

	summary, err := engine.Balances(ctx, s.store, groupID, memberID, dir)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, groupID, memberID, dir, summary)
	return summary, nil
}

// GetExpenseShares returns the shares of an expense with ower identities.
func (s *LedgerService) GetExpenseShares(ctx context.Context, expenseID string) ([]storage.ShareInfo, error) {
	if _, err := s.store.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return s.store.ListExpenseShares(ctx, expenseID)
}

// ListExpenses returns the group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, groupID string) ([]storage.ExpenseInfo, error) {
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// ListPayments returns the group's payments, newest first.
func (s *LedgerService) ListPayments(ctx context.Context, groupID string) ([]storage.PaymentInfo, error) {
	return s.store.ListPaymentsByGroup(ctx, groupID)
}
