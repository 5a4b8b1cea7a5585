// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a referenced expense, settlement or participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransient is returned when a transaction kept conflicting with concurrent writers
	// and the retry budget ran out. Callers may try again.
	ErrTransient = errors.New("transient storage conflict")
)

// ListOptions narrows and pages list queries.
type ListOptions struct {
	// GroupID, when set, keeps only records of that group. Settlements belong
	// to the group of their linked expense.
	GroupID string

	// Limit defaults to 50 when not positive.
	Limit  int
	Offset int
}

// Store defines the storage operations used by the ledger.
// Reads outside a transaction see the latest committed state; every mutation
// goes through InTx so multi-row changes apply atomically.
type Store interface {
	// InTx runs fn inside one write transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. Conflicts with concurrent writers are
	// retried with backoff; fn may therefore run more than once and must not have
	// side effects outside tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetExpense retrieves an expense with its participants.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByUser lists expenses where userID is payer or participant,
	// newest expense date first.
	ListExpensesByUser(ctx context.Context, userID string, opts ListOptions) ([]*models.Expense, error)

	// ExpenseSummary counts and totals the expenses userID paid or shares in.
	ExpenseSummary(ctx context.Context, userID string) (models.ExpenseSummary, error)

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByUser lists settlements where userID paid or was paid,
	// newest settlement date first.
	ListSettlementsByUser(ctx context.Context, userID string, opts ListOptions) ([]*models.Settlement, error)

	// SettlementStats counts and totals the settlements userID paid or received.
	SettlementStats(ctx context.Context, userID string) (models.SettlementStats, error)

	// ListBalancesByOwner returns the non-zero balance rows owned by ownerID.
	ListBalancesByOwner(ctx context.Context, ownerID string) ([]models.Balance, error)

	// ListPositiveBalancesTouching returns rows with balance > 0 where userID is
	// the owner or the counterparty, largest first.
	ListPositiveBalancesTouching(ctx context.Context, userID string) ([]models.Balance, error)

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a write transaction.
type Tx interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error

	// MarkParticipantSettled flags (expenseID, userID) as settled at settledAt.
	// Returns ErrNotFound when the participant row does not exist.
	MarkParticipantSettled(ctx context.Context, expenseID, userID string, settledAt int64) error

	// ListObligations returns participant records of expenses where userID is
	// payer or participant, excluding self-paid shares. When unsettledOnly is
	// set, settled participants are left out.
	ListObligations(ctx context.Context, userID string, unsettledOnly bool) ([]models.Obligation, error)

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	DeleteSettlement(ctx context.Context, settlementID string) error

	// ListSettlementsTouching returns every settlement where userID paid or was paid.
	ListSettlementsTouching(ctx context.Context, userID string) ([]*models.Settlement, error)

	// GetBalance returns balance(owner, counterparty); an absent row reads as zero.
	GetBalance(ctx context.Context, ownerID, counterpartyID string) (decimal.Decimal, error)

	// PutBalance stores balance(owner, counterparty). A zero balance deletes the row.
	PutBalance(ctx context.Context, ownerID, counterpartyID string, balance decimal.Decimal) error

	// DeleteBalancesByOwner removes every row owned by ownerID.
	DeleteBalancesByOwner(ctx context.Context, ownerID string) error

	// DeleteBalancesTouching removes every row where userID is owner or counterparty.
	DeleteBalancesTouching(ctx context.Context, userID string) error
}
