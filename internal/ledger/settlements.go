package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// NewSettlement is the input to RecordSettlement.
type NewSettlement struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string

	// ExpenseID, when set, marks FromUserID's share of that expense settled.
	ExpenseID string

	Notes          string
	SettlementDate int64
	CreatedBy      string
}

func (n NewSettlement) validate() error {
	if err := validateTransfer(n.FromUserID, n.ToUserID, n.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettlement, err)
	}
	if n.CreatedBy == "" {
		return fmt.Errorf("%w: created_by is required", ErrInvalidSettlement)
	}
	return nil
}

// RecordSettlement stores a payment from FromUserID to ToUserID and applies it
// to the balance table. When ExpenseID is set, the payer's participant record on
// that expense is marked settled. All of it commits or none of it does.
func (l *Ledger) RecordSettlement(ctx context.Context, in NewSettlement) (*models.Settlement, error) {
	if err := in.validate(); err != nil {
		return nil, l.fail("record_settlement", err)
	}

	var settlement *models.Settlement
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		// fresh value per attempt, InTx may retry
		settlement = &models.Settlement{
			FromUserID:     in.FromUserID,
			ToUserID:       in.ToUserID,
			Amount:         in.Amount,
			Currency:       currencyOrDefault(in.Currency),
			ExpenseID:      in.ExpenseID,
			Notes:          in.Notes,
			SettlementDate: in.SettlementDate,
			CreatedBy:      in.CreatedBy,
		}

		if in.ExpenseID != "" {
			if _, err := tx.GetExpense(ctx, in.ExpenseID); err != nil {
				return err
			}
		}

		if err := tx.CreateSettlement(ctx, settlement); err != nil {
			return err
		}
		if err := adjust(ctx, tx, in.FromUserID, in.ToUserID, in.Amount); err != nil {
			return err
		}

		if in.ExpenseID != "" {
			err := tx.MarkParticipantSettled(ctx, in.ExpenseID, in.FromUserID, settlement.CreatedAt)
			if err != nil {
				return fmt.Errorf("settling %s on expense %s: %w", in.FromUserID, in.ExpenseID, err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to record settlement",
			"from_user_id", in.FromUserID,
			"to_user_id", in.ToUserID,
			"expense_id", in.ExpenseID,
			"error", err,
		)
		return nil, l.fail("record_settlement", err)
	}

	l.metrics.SettlementsRecorded.Inc()
	l.metrics.Adjustments.Inc()
	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"from_user_id", settlement.FromUserID,
		"to_user_id", settlement.ToUserID,
		"amount", settlement.Amount.String(),
	)
	return settlement, nil
}

// DeleteSettlement removes a settlement and reverses its balance effect.
// Participant flags set when it was recorded are left as they are.
func (l *Ledger) DeleteSettlement(ctx context.Context, settlementID string) error {
	var deleted *models.Settlement
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		s, err := tx.GetSettlement(ctx, settlementID)
		if err != nil {
			return err
		}
		if err := tx.DeleteSettlement(ctx, settlementID); err != nil {
			return err
		}
		deleted = s
		return adjust(ctx, tx, s.ToUserID, s.FromUserID, s.Amount)
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("Failed to delete settlement", "settlement_id", settlementID, "error", err)
		}
		return l.fail("delete_settlement", err)
	}

	l.metrics.SettlementsDeleted.Inc()
	l.metrics.Adjustments.Inc()
	slog.Info("Settlement deleted",
		"settlement_id", settlementID,
		"from_user_id", deleted.FromUserID,
		"to_user_id", deleted.ToUserID,
		"amount", deleted.Amount.String(),
	)
	return nil
}

// GetSettlement returns one settlement.
func (l *Ledger) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	s, err := l.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, l.fail("get_settlement", err)
	}
	return s, nil
}

// ListSettlements returns settlements the user paid or received, newest first.
func (l *Ledger) ListSettlements(ctx context.Context, userID string, opts storage.ListOptions) ([]*models.Settlement, error) {
	settlements, err := l.store.ListSettlementsByUser(ctx, userID, opts)
	if err != nil {
		return nil, l.fail("list_settlements", err)
	}
	return settlements, nil
}

// SettlementStats counts and totals the user's payments in each direction.
func (l *Ledger) SettlementStats(ctx context.Context, userID string) (models.SettlementStats, error) {
	stats, err := l.store.SettlementStats(ctx, userID)
	if err != nil {
		return stats, l.fail("settlement_stats", err)
	}
	return stats, nil
}

func currencyOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD"
	}
	return c
}
