// Package ledger maintains the pairwise balance table and the settlement lifecycle.
//
// All balance mutations go through this package: Adjust (incremental, used by
// settlements), Recompute (one-sided replay of unsettled expense participants)
// and Rebuild (two-sided replay of both expense and settlement history). Each
// mutation runs in a single storage transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrInvalidSettlement = errors.New("invalid settlement")
	ErrInvalidAdjustment = errors.New("invalid balance adjustment")
	ErrInvalidExpense    = errors.New("invalid expense")
	ErrExpenseLocked     = errors.New("expense has settled participants")
)

// Ledger is the balance ledger and settlement engine.
type Ledger struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// New creates a Ledger over store. A nil m disables metric export.
func New(store storage.Store, m *metrics.Metrics) *Ledger {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Ledger{store: store, metrics: m}
}

// Adjust moves amount between two users in one transaction:
// balance(from,to) -= amount and balance(to,from) += amount.
// Missing rows start at zero; rows that reach zero are removed.
func (l *Ledger) Adjust(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal) error {
	if err := validateTransfer(fromUserID, toUserID, amount); err != nil {
		return l.fail("adjust", fmt.Errorf("%w: %v", ErrInvalidAdjustment, err))
	}

	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		return adjust(ctx, tx, fromUserID, toUserID, amount)
	})
	if err != nil {
		return l.fail("adjust", err)
	}

	l.metrics.Adjustments.Inc()
	slog.Debug("Balance adjusted", "from_user_id", fromUserID, "to_user_id", toUserID, "amount", amount.String())
	return nil
}

// adjust applies both row updates inside tx. Each row is read and written
// independently; callers rely on the transaction for atomicity.
func adjust(ctx context.Context, tx storage.Tx, fromUserID, toUserID string, amount decimal.Decimal) error {
	fromBalance, err := tx.GetBalance(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	toBalance, err := tx.GetBalance(ctx, toUserID, fromUserID)
	if err != nil {
		return err
	}

	if err := tx.PutBalance(ctx, fromUserID, toUserID, fromBalance.Sub(amount)); err != nil {
		return err
	}
	return tx.PutBalance(ctx, toUserID, fromUserID, toBalance.Add(amount))
}

func validateTransfer(fromUserID, toUserID string, amount decimal.Decimal) error {
	if fromUserID == "" || toUserID == "" {
		return fmt.Errorf("both users are required")
	}
	if fromUserID == toUserID {
		return fmt.Errorf("from and to must differ")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return nil
}

// fail records err under operation and returns it unchanged.
func (l *Ledger) fail(operation string, err error) error {
	l.metrics.OperationErrors.WithLabelValues(operation, Classify(err)).Inc()
	return err
}

// Classify buckets an error returned by the ledger:
// "validation", "not_found", "transient" or "storage".
func Classify(err error) string {
	switch {
	case IsValidation(err):
		return "validation"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrTransient):
		return "transient"
	default:
		return "storage"
	}
}

// IsValidation reports whether err means the caller's input was rejected.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidSettlement,
		ErrInvalidAdjustment,
		ErrInvalidExpense,
		ErrExpenseLocked,
		calculator.ErrInvalidSplitMethod,
		calculator.ErrEmptyParticipantSet,
		calculator.ErrSplitMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
