package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
)

type createSettlementRequest struct {
	FromUserID     string          `json:"from_user_id"`
	ToUserID       string          `json:"to_user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ExpenseID      string          `json:"expense_id"`
	Notes          string          `json:"notes"`
	SettlementDate int64           `json:"settlement_date"`
}

type settlementResponse struct {
	ID             string          `json:"id"`
	FromUserID     string          `json:"from_user_id"`
	ToUserID       string          `json:"to_user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ExpenseID      string          `json:"expense_id,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	SettlementDate int64           `json:"settlement_date"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      int64           `json:"created_at"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:             s.ID,
		FromUserID:     s.FromUserID,
		ToUserID:       s.ToUserID,
		Amount:         s.Amount,
		Currency:       s.Currency,
		ExpenseID:      s.ExpenseID,
		Notes:          s.Notes,
		SettlementDate: s.SettlementDate,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
	}
}

// CreateSettlement handles POST /api/settlements. The payer defaults to the caller.
func (h *Handler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createSettlementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	from := req.FromUserID
	if from == "" {
		from = userID
	}

	settlement, err := h.ledger.RecordSettlement(r.Context(), ledger.NewSettlement{
		FromUserID:     from,
		ToUserID:       req.ToUserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		ExpenseID:      req.ExpenseID,
		Notes:          req.Notes,
		SettlementDate: req.SettlementDate,
		CreatedBy:      userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    toSettlementResponse(settlement),
		Message: "Settlement recorded successfully",
	})
}

// ListSettlements handles GET /api/settlements. group_id keeps settlements
// linked to that group's expenses.
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.ledger.ListSettlements(r.Context(), middleware.GetUserID(r.Context()), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]settlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlementResponse(s)
	}
	writeData(w, http.StatusOK, map[string]any{"settlements": out})
}

// GetSettlement handles GET /api/settlements/{id}. Only the creator and the
// two parties may read it.
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.ledger.GetSettlement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := requireInvolved(r, settlement.FromUserID, settlement.ToUserID, settlement.CreatedBy); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toSettlementResponse(settlement))
}

// DeleteSettlement handles DELETE /api/settlements/{id}. The creator or either
// party may delete.
func (h *Handler) DeleteSettlement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	settlement, err := h.ledger.GetSettlement(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := requireInvolved(r, settlement.FromUserID, settlement.ToUserID, settlement.CreatedBy); err != nil {
		writeError(w, err)
		return
	}

	if err := h.ledger.DeleteSettlement(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Settlement deleted"})
}
