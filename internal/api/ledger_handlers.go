package api

import (
	"fmt"
	"net/http"

	"github.com/billbuddy/billbuddy/internal/engine"
	"github.com/billbuddy/billbuddy/internal/middleware"
	"github.com/billbuddy/billbuddy/internal/money"
	"github.com/billbuddy/billbuddy/internal/service"
)

// Amounts cross the API as decimal strings ("12.34"); internally everything
// is integer cents.

type createExpenseRequest struct {
	PayerMemberID string `json:"payerMemberId"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
}

type expenseResponse struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId"`
	PayerID     string `json:"payerMemberId"`
	PayerName   string `json:"payerName,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Settled     bool   `json:"settled"`
	CreatedAt   int64  `json:"createdAt"`
}

type shareResponse struct {
	ID        string `json:"id"`
	ExpenseID string `json:"expenseId"`
	MemberID  string `json:"memberId"`
	OwerName  string `json:"owerName,omitempty"`
	Amount    string `json:"amount"`
	Paid      string `json:"paid"`
	LeftToPay string `json:"leftToPay"`
	Status    string `json:"status"`
}

func parseAmount(field, value string) (money.Cents, error) {
	amount, err := money.ParseAmount(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", service.ErrValidation, field, err)
	}
	return amount, nil
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := a.ledger.CreateExpense(r.Context(), service.CreateExpenseRequest{
		GroupID:       r.PathValue("groupID"),
		PayerMemberID: req.PayerMemberID,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		PayerID:     expense.PayerMemberID,
		Amount:      expense.Amount.String(),
		Description: expense.Description,
		Settled:     expense.Settled,
		CreatedAt:   expense.CreatedAt,
	})
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := a.ledger.ListExpenses(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, info := range expenses {
		out[i] = expenseResponse{
			ID:          info.Expense.ID,
			GroupID:     info.Expense.GroupID,
			PayerID:     info.Expense.PayerMemberID,
			PayerName:   info.PayerName,
			Amount:      info.Expense.Amount.String(),
			Description: info.Expense.Description,
			Settled:     info.Expense.Settled,
			CreatedAt:   info.Expense.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (a *API) handleCreateShares(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shares []struct {
			MemberID string `json:"memberId"`
			Amount   string `json:"amount"`
		} `json:"shares"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	inputs := make([]service.ShareInput, len(req.Shares))
	for i, sh := range req.Shares {
		amount, err := parseAmount("shares.amount", sh.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		inputs[i] = service.ShareInput{MemberID: sh.MemberID, Amount: amount}
	}

	result, err := a.ledger.CreateShares(r.Context(), r.PathValue("expenseID"), inputs)
	if err != nil {
		writeError(w, err)
		return
	}

	shares := make([]shareResponse, len(result.Shares))
	for i, sh := range result.Shares {
		shares[i] = shareResponse{
			ID:        sh.ID,
			ExpenseID: sh.ExpenseID,
			MemberID:  sh.OwesMemberID,
			Amount:    sh.Amount.String(),
			Paid:      sh.Paid.String(),
			LeftToPay: sh.LeftToPay().String(),
			Status:    string(sh.Status),
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"shares":        shares,
		"offsetApplied": result.Offset.TotalApplied.String(),
	})
}

func (a *API) handleGetShares(w http.ResponseWriter, r *http.Request) {
	infos, err := a.ledger.GetExpenseShares(r.Context(), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}

	shares := make([]shareResponse, len(infos))
	for i, info := range infos {
		shares[i] = shareResponse{
			ID:        info.Share.ID,
			ExpenseID: info.Share.ExpenseID,
			MemberID:  info.Share.OwesMemberID,
			OwerName:  info.OwerName,
			Amount:    info.Share.Amount.String(),
			Paid:      info.Share.Paid.String(),
			LeftToPay: info.Share.LeftToPay().String(),
			Status:    string(info.Share.Status),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (a *API) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PayeeMemberID string   `json:"payeeMemberId"`
		Amount        string   `json:"amount"`
		ShareIDs      []string `json:"shareIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	groupID := r.PathValue("groupID")
	payer, err := a.groups.MemberForAccount(r.Context(), groupID, middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := a.ledger.RecordPayment(r.Context(), service.RecordPaymentRequest{
		GroupID:       groupID,
		PayerMemberID: payer.ID,
		PayeeMemberID: req.PayeeMemberID,
		Amount:        amount,
		ShareIDs:      req.ShareIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"paymentId":     result.PaymentID,
		"amountSent":    result.AmountSent.String(),
		"amountApplied": result.AmountApplied.String(),
	})
}

func (a *API) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.ledger.ListPayments(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	type paymentResponse struct {
		ID         string `json:"id"`
		PaidByID   string `json:"paidByMemberId"`
		PaidByName string `json:"paidByName"`
		PaidToID   string `json:"paidToMemberId"`
		PaidToName string `json:"paidToName"`
		Amount     string `json:"amount"`
		CreatedAt  int64  `json:"createdAt"`
	}
	out := make([]paymentResponse, len(payments))
	for i, info := range payments {
		out[i] = paymentResponse{
			ID:         info.Payment.ID,
			PaidByID:   info.Payment.PaidByMemberID,
			PaidByName: info.PaidByName,
			PaidToID:   info.Payment.PaidToMemberID,
			PaidToName: info.PaidToName,
			Amount:     info.Payment.Amount.String(),
			CreatedAt:  info.Payment.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

func (a *API) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	member, err := a.groups.MemberForAccount(r.Context(), groupID, middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	dir := engine.Direction(r.URL.Query().Get("direction"))
	switch dir {
	case "":
		dir = engine.DirectionBoth
	case engine.DirectionYouOwe, engine.DirectionOwedToYou, engine.DirectionBoth:
	default:
		writeError(w, fmt.Errorf("%w: unknown direction %q", service.ErrValidation, dir))
		return
	}

	summary, err := a.ledger.GetBalances(r.Context(), groupID, member.ID, dir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
