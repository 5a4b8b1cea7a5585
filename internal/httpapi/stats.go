package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/middleware"
)

type settlementStatsResponse struct {
	PaymentsMade     int             `json:"payments_made"`
	PaymentsReceived int             `json:"payments_received"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalReceived    decimal.Decimal `json:"total_received"`
}

type expenseSummaryResponse struct {
	ExpensesPaid     int             `json:"expenses_paid"`
	ExpensesInvolved int             `json:"expenses_involved"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOwed        decimal.Decimal `json:"total_owed"`
	RecentExpenses   int             `json:"recent_expenses"`
}

type statsResponse struct {
	Settlements settlementStatsResponse `json:"settlements"`
	Expenses    expenseSummaryResponse  `json:"expenses"`
}

// GetStats handles GET /api/stats: the caller's settlement and expense totals.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stats, err := h.reporter.SettlementStats(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.reporter.ExpenseSummary(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, statsResponse{
		Settlements: settlementStatsResponse{
			PaymentsMade:     stats.PaymentsMade,
			PaymentsReceived: stats.PaymentsReceived,
			TotalPaid:        stats.TotalPaid,
			TotalReceived:    stats.TotalReceived,
		},
		Expenses: expenseSummaryResponse{
			ExpensesPaid:     summary.ExpensesPaid,
			ExpensesInvolved: summary.ExpensesInvolved,
			TotalPaid:        summary.TotalPaid,
			TotalOwed:        summary.TotalOwed,
			RecentExpenses:   summary.RecentExpenses,
		},
	})
}
