package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
)

type participantRequest struct {
	UserID     string           `json:"user_id"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type createExpenseRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	Currency     string               `json:"currency"`
	Category     string               `json:"category"`
	GroupID      string               `json:"group_id"`
	PaidBy       string               `json:"paid_by"`
	SplitMethod  string               `json:"split_method"`
	ExpenseDate  int64                `json:"expense_date"`
	Participants []participantRequest `json:"participants"`
}

type updateExpenseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ExpenseDate *int64  `json:"expense_date"`
}

type participantResponse struct {
	UserID     string           `json:"user_id"`
	AmountOwed decimal.Decimal  `json:"amount_owed"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	IsSettled  bool             `json:"is_settled"`
	SettledAt  int64            `json:"settled_at,omitempty"`
}

type expenseResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	TotalAmount  decimal.Decimal       `json:"total_amount"`
	Currency     string                `json:"currency"`
	Category     string                `json:"category"`
	GroupID      string                `json:"group_id,omitempty"`
	PaidBy       string                `json:"paid_by"`
	SplitMethod  models.SplitMethod    `json:"split_method"`
	ExpenseDate  int64                 `json:"expense_date"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    int64                 `json:"created_at"`
	UpdatedAt    int64                 `json:"updated_at"`
	Participants []participantResponse `json:"participants"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	participants := make([]participantResponse, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = participantResponse{
			UserID:     p.UserID,
			AmountOwed: p.AmountOwed,
			IsSettled:  p.IsSettled,
			SettledAt:  p.SettledAt,
		}
		if p.Percentage.Valid {
			pct := p.Percentage.Decimal
			participants[i].Percentage = &pct
		}
	}
	return expenseResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		TotalAmount:  e.TotalAmount,
		Currency:     e.Currency,
		Category:     e.Category,
		GroupID:      e.GroupID,
		PaidBy:       e.PaidBy,
		SplitMethod:  e.SplitMethod,
		ExpenseDate:  e.ExpenseDate,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Participants: participants,
	}
}

// CreateExpense handles POST /api/expenses. The payer defaults to the caller.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createExpenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	method, err := models.ParseSplitMethod(req.SplitMethod)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", calculator.ErrInvalidSplitMethod, err))
		return
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = userID
	}

	participants := make([]calculator.ParticipantInput, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = calculator.ParticipantInput{
			UserID:     p.UserID,
			Amount:     p.Amount,
			Percentage: p.Percentage,
		}
	}

	expense, err := h.ledger.CreateExpense(r.Context(), ledger.NewExpense{
		Title:        req.Title,
		Description:  req.Description,
		TotalAmount:  req.TotalAmount,
		Currency:     req.Currency,
		Category:     req.Category,
		GroupID:      req.GroupID,
		PaidBy:       paidBy,
		SplitMethod:  method,
		ExpenseDate:  req.ExpenseDate,
		CreatedBy:    userID,
		Participants: participants,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toExpenseResponse(expense))
}

// ListExpenses handles GET /api/expenses. group_id narrows the list to one group.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.ledger.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	writeData(w, http.StatusOK, map[string]any{"expenses": out})
}

// GetExpense handles GET /api/expenses/{id}. The payer, creator and
// participants may read it.
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.ledger.GetExpense(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := requireInvolved(r, expenseParties(expense)...); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseResponse(expense))
}

// UpdateExpense handles PATCH /api/expenses/{id}. Only the creator may edit.
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.requireCreator(r, id); err != nil {
		writeError(w, err)
		return
	}

	var req updateExpenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.ledger.UpdateExpense(r.Context(), id, ledger.ExpenseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ExpenseDate: req.ExpenseDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense handles DELETE /api/expenses/{id}. Only the creator may delete.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.requireCreator(r, id); err != nil {
		writeError(w, err)
		return
	}

	if err := h.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Expense deleted"})
}

func (h *Handler) requireCreator(r *http.Request, expenseID string) error {
	expense, err := h.ledger.GetExpense(r.Context(), expenseID)
	if err != nil {
		return err
	}
	if expense.CreatedBy != middleware.GetUserID(r.Context()) {
		return errForbidden
	}
	return nil
}

// requireInvolved fails with errForbidden unless the caller is one of parties.
func requireInvolved(r *http.Request, parties ...string) error {
	userID := middleware.GetUserID(r.Context())
	for _, p := range parties {
		if p == userID {
			return nil
		}
	}
	return errForbidden
}

func expenseParties(e *models.Expense) []string {
	parties := []string{e.PaidBy, e.CreatedBy}
	for _, p := range e.Participants {
		parties = append(parties, p.UserID)
	}
	return parties
}
