package models

import "github.com/shopspring/decimal"

// Balance is one directed row of the pairwise balance table.
// Positive means OwnerID owes CounterpartyID; negative means the counterparty owes the owner.
// Adjust and Rebuild keep Balance(A,B) == -Balance(B,A); Recompute rewrites only the owner's side.
type Balance struct {
	OwnerID        string
	CounterpartyID string
	Balance        decimal.Decimal
	UpdatedAt      int64
}
