package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
)

type balanceResponse struct {
	CounterpartyID string          `json:"counterparty_id"`
	Owed           decimal.Decimal `json:"owed"`
	Owes           decimal.Decimal `json:"owes"`
	Net            decimal.Decimal `json:"net"`
}

type debtResponse struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type summaryResponse struct {
	TotalOwedToMe decimal.Decimal `json:"total_owed_to_me"`
	TotalIOwe     decimal.Decimal `json:"total_i_owe"`
	Net           decimal.Decimal `json:"net"`
}

type balancesResponse struct {
	Balances []balanceResponse `json:"balances"`
	Debts    []debtResponse    `json:"debts"`
	Summary  summaryResponse   `json:"summary"`
}

// GetBalances handles GET /api/balances. action=recalculate refreshes the
// caller's rows from unsettled expenses first; action=rebuild replays the
// full history of every pair the caller is in.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	switch action := r.URL.Query().Get("action"); action {
	case "":
	case "recalculate":
		if err := h.ledger.Recompute(ctx, userID); err != nil {
			writeError(w, err)
			return
		}
	case "rebuild":
		if err := h.ledger.Rebuild(ctx, userID); err != nil {
			writeError(w, err)
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, envelope{Error: "unknown action " + action})
		return
	}

	rep, err := h.reporter.Report(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := balancesResponse{
		Balances: make([]balanceResponse, len(rep.Balances)),
		Debts:    make([]debtResponse, len(rep.Debts)),
		Summary: summaryResponse{
			TotalOwedToMe: rep.Summary.TotalOwedToMe,
			TotalIOwe:     rep.Summary.TotalIOwe,
			Net:           rep.Summary.Net,
		},
	}
	for i, b := range rep.Balances {
		resp.Balances[i] = toBalanceResponse(b)
	}
	for i, d := range rep.Debts {
		resp.Debts[i] = debtResponse{FromUserID: d.FromUserID, ToUserID: d.ToUserID, Amount: d.Amount}
	}
	writeData(w, http.StatusOK, resp)
}

func toBalanceResponse(b ledger.CounterpartyBalance) balanceResponse {
	return balanceResponse{
		CounterpartyID: b.CounterpartyID,
		Owed:           b.Owed,
		Owes:           b.Owes,
		Net:            b.Net,
	}
}
