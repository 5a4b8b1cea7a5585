package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// recentWindow bounds ExpenseSummary.RecentExpenses.
const recentWindow = 30 * 24 * time.Hour

// SettlementStats counts and totals the user's settlements in each direction.
// Amounts are TEXT, so totals are summed here rather than with SUM().
func (s *SQLiteStore) SettlementStats(ctx context.Context, userID string) (models.SettlementStats, error) {
	stats := models.SettlementStats{TotalPaid: decimal.Zero, TotalReceived: decimal.Zero}

	rows, err := s.db.QueryContext(ctx,
		`SELECT from_user_id, amount FROM settlements WHERE from_user_id = ? OR to_user_id = ?`,
		userID, userID,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query settlement stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from string
		var amount decimal.Decimal
		if err := rows.Scan(&from, &amount); err != nil {
			return stats, fmt.Errorf("failed to scan settlement stats: %w", err)
		}
		if from == userID {
			stats.PaymentsMade++
			stats.TotalPaid = stats.TotalPaid.Add(amount)
		} else {
			stats.PaymentsReceived++
			stats.TotalReceived = stats.TotalReceived.Add(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to iterate settlement stats: %w", err)
	}
	return stats, nil
}

// ExpenseSummary counts and totals what the user paid and what they owe.
func (s *SQLiteStore) ExpenseSummary(ctx context.Context, userID string) (models.ExpenseSummary, error) {
	summary := models.ExpenseSummary{TotalPaid: decimal.Zero, TotalOwed: decimal.Zero}

	var err error
	summary.ExpensesPaid, summary.TotalPaid, err = s.sumAmounts(ctx,
		`SELECT total_amount FROM expenses WHERE paid_by = ?`, userID)
	if err != nil {
		return summary, err
	}
	summary.ExpensesInvolved, summary.TotalOwed, err = s.sumAmounts(ctx,
		`SELECT amount_owed FROM expense_participants WHERE user_id = ?`, userID)
	if err != nil {
		return summary, err
	}

	since := s.now().Add(-recentWindow).Unix()
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses
		 WHERE expense_date >= ?
		   AND (paid_by = ? OR id IN (SELECT expense_id FROM expense_participants WHERE user_id = ?))`,
		since, userID, userID,
	).Scan(&summary.RecentExpenses)
	if err != nil {
		return summary, fmt.Errorf("failed to count recent expenses: %w", err)
	}
	return summary, nil
}

// sumAmounts runs a single-column amount query and returns the row count and total.
func (s *SQLiteStore) sumAmounts(ctx context.Context, query string, args ...any) (int, decimal.Decimal, error) {
	total := decimal.Zero
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, total, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return 0, total, fmt.Errorf("failed to scan amount: %w", err)
		}
		n++
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return 0, total, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return n, total, nil
}
