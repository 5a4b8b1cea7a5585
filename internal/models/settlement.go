package models

import "github.com/shopspring/decimal"

// Settlement represents a payment from one user to another to clear debts.
// Settlements are append-only except for explicit deletion, which must be reversed in the ledger.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// Currency is a label only.
	Currency string

	// ExpenseID optionally links the settlement to one expense.
	ExpenseID string

	// Notes is an optional description for the settlement.
	Notes string

	// SettlementDate is when the payment happened.
	SettlementDate int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
