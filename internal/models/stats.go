package models

import "github.com/shopspring/decimal"

// SettlementStats counts and totals the settlements a user paid or received.
type SettlementStats struct {
	PaymentsMade     int
	PaymentsReceived int
	TotalPaid        decimal.Decimal
	TotalReceived    decimal.Decimal
}

// ExpenseSummary counts and totals the expenses a user paid for or takes part in.
type ExpenseSummary struct {
	// ExpensesPaid and TotalPaid cover expenses the user fronted.
	ExpensesPaid int
	TotalPaid    decimal.Decimal

	// ExpensesInvolved and TotalOwed cover the user's own participant shares,
	// including shares of expenses they paid for themselves.
	ExpensesInvolved int
	TotalOwed        decimal.Decimal

	// RecentExpenses counts distinct expenses paid or shared within the last 30 days.
	RecentExpenses int
}
