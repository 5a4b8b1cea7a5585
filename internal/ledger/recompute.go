package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// Recompute rebuilds the rows owned by userID from unsettled expense participants.
//
// It deletes every balance(userID, *) row and replays unsettled obligations
// where userID is payer or participant. Settlements are not replayed, and the
// counterparties' mirrored rows are left alone: this refreshes one user's view
// and does not restore pair symmetry. Use Rebuild for that.
func (l *Ledger) Recompute(ctx context.Context, userID string) error {
	start := time.Now()
	var written int

	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		written = 0
		if err := tx.DeleteBalancesByOwner(ctx, userID); err != nil {
			return err
		}

		obligations, err := tx.ListObligations(ctx, userID, true)
		if err != nil {
			return err
		}

		for counterpartyID, net := range calculator.NetBalances(userID, obligations) {
			if err := tx.PutBalance(ctx, userID, counterpartyID, net); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		slog.Error("Recompute failed", "user_id", userID, "error", err)
		return l.fail("recompute", err)
	}

	l.metrics.RecomputeDuration.WithLabelValues("recompute").Observe(time.Since(start).Seconds())
	slog.Info("Balances recomputed", "user_id", userID, "counterparties", written)
	return nil
}

// Rebuild replays the full expense and settlement history of every pair that
// involves userID and rewrites both directions of each pair.
//
// Unlike Recompute, settled participants and settlements both count, so the
// result does not depend on which operations ran before.
func (l *Ledger) Rebuild(ctx context.Context, userID string) error {
	start := time.Now()
	var written int

	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		written = 0
		obligations, err := tx.ListObligations(ctx, userID, false)
		if err != nil {
			return err
		}
		settlements, err := tx.ListSettlementsTouching(ctx, userID)
		if err != nil {
			return err
		}

		replay := make([]calculator.SettlementForBalance, len(settlements))
		for i, s := range settlements {
			replay[i] = calculator.SettlementForBalance{
				FromUserID: s.FromUserID,
				ToUserID:   s.ToUserID,
				Amount:     s.Amount,
			}
		}

		if err := tx.DeleteBalancesTouching(ctx, userID); err != nil {
			return err
		}

		for counterpartyID, net := range calculator.ReplayAll(userID, obligations, replay) {
			if err := tx.PutBalance(ctx, userID, counterpartyID, net); err != nil {
				return err
			}
			if err := tx.PutBalance(ctx, counterpartyID, userID, net.Neg()); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		slog.Error("Rebuild failed", "user_id", userID, "error", err)
		return l.fail("rebuild", err)
	}

	l.metrics.RecomputeDuration.WithLabelValues("rebuild").Observe(time.Since(start).Seconds())
	slog.Info("Balances rebuilt", "user_id", userID, "counterparties", written)
	return nil
}
