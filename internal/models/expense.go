package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitMethod selects how an expense total is divided among participants.
type SplitMethod string

const (
	SplitEqual      SplitMethod = "equal"
	SplitExact      SplitMethod = "exact"
	SplitPercentage SplitMethod = "percentage"
)

// ParseSplitMethod converts a string to a SplitMethod.
// An empty string defaults to SplitEqual.
func ParseSplitMethod(s string) (SplitMethod, error) {
	switch SplitMethod(s) {
	case "":
		return SplitEqual, nil
	case SplitEqual, SplitExact, SplitPercentage:
		return SplitMethod(s), nil
	}
	return "", fmt.Errorf("unknown split method %q", s)
}

// Expense represents a cost paid by one user and shared by participants.
// Expense and participant rows are the source of truth for unsettled obligations.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Title is the human-readable name for the expense.
	Title string

	// Description is optional free text.
	Description string

	// TotalAmount is what the payer paid.
	TotalAmount decimal.Decimal

	// Currency is a label only; amounts are never converted or netted across currencies.
	Currency string

	// Category groups expenses for reporting (e.g. "food").
	Category string

	// GroupID is the owning group, if any.
	GroupID string

	// PaidBy is the user who paid.
	PaidBy string

	// SplitMethod is how TotalAmount was divided.
	SplitMethod SplitMethod

	// ExpenseDate is when the expense was incurred.
	ExpenseDate int64

	// CreatedBy is the user who recorded the expense. Only the creator may change it.
	CreatedBy string

	CreatedAt int64
	UpdatedAt int64

	// Participants are the per-user obligations. The payer usually appears here
	// with their own share.
	Participants []ExpenseParticipant
}

// HasSettledParticipants reports whether any participant has been marked settled.
func (e *Expense) HasSettledParticipants() bool {
	for _, p := range e.Participants {
		if p.IsSettled {
			return true
		}
	}
	return false
}

// ExpenseParticipant is one user's share of an expense.
// (ExpenseID, UserID) is unique.
type ExpenseParticipant struct {
	ExpenseID string
	UserID    string

	// AmountOwed is non-negative.
	AmountOwed decimal.Decimal

	// Percentage is only meaningful for the percentage split method.
	Percentage decimal.NullDecimal

	IsSettled bool

	// SettledAt is zero while unsettled.
	SettledAt int64
}

// Obligation is a participant record joined with its expense payer.
// It is what balance replay consumes.
type Obligation struct {
	ExpenseID     string
	PayerID       string
	ParticipantID string
	Amount        decimal.Decimal
	IsSettled     bool
}
