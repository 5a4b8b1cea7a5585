package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// GetBalance returns balance(owner, counterparty). A missing row reads as zero.
func (t *txStore) GetBalance(ctx context.Context, ownerID, counterpartyID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := t.q.QueryRowContext(ctx,
		"SELECT balance FROM balances WHERE owner_id = ? AND counterparty_id = ?",
		ownerID, counterpartyID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// PutBalance upserts balance(owner, counterparty), deleting the row when it nets to zero.
func (t *txStore) PutBalance(ctx context.Context, ownerID, counterpartyID string, balance decimal.Decimal) error {
	if balance.IsZero() {
		_, err := t.q.ExecContext(ctx,
			"DELETE FROM balances WHERE owner_id = ? AND counterparty_id = ?",
			ownerID, counterpartyID,
		)
		if err != nil {
			return fmt.Errorf("failed to prune balance: %w", err)
		}
		return nil
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO balances (owner_id, counterparty_id, balance, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner_id, counterparty_id) DO UPDATE
		 SET balance = excluded.balance, updated_at = excluded.updated_at`,
		ownerID, counterpartyID, balance, t.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put balance: %w", err)
	}
	return nil
}

// DeleteBalancesByOwner removes the owner's side of every pair.
func (t *txStore) DeleteBalancesByOwner(ctx context.Context, ownerID string) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM balances WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("failed to delete balances: %w", err)
	}
	return nil
}

// DeleteBalancesTouching removes both sides of every pair involving userID.
func (t *txStore) DeleteBalancesTouching(ctx context.Context, userID string) error {
	_, err := t.q.ExecContext(ctx,
		"DELETE FROM balances WHERE owner_id = ? OR counterparty_id = ?",
		userID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balances: %w", err)
	}
	return nil
}

// ListBalancesByOwner returns the owner's non-zero rows, ordered by counterparty.
func (s *SQLiteStore) ListBalancesByOwner(ctx context.Context, ownerID string) ([]models.Balance, error) {
	balances, err := queryBalances(ctx, s.db,
		`SELECT owner_id, counterparty_id, balance, updated_at FROM balances
		 WHERE owner_id = ? ORDER BY counterparty_id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}

	nonZero := balances[:0]
	for _, b := range balances {
		if !b.Balance.IsZero() {
			nonZero = append(nonZero, b)
		}
	}
	return nonZero, nil
}

// ListPositiveBalancesTouching returns directed debts involving userID, largest first.
// Amounts are TEXT, so the sign filter and ordering happen here rather than in SQL.
func (s *SQLiteStore) ListPositiveBalancesTouching(ctx context.Context, userID string) ([]models.Balance, error) {
	balances, err := queryBalances(ctx, s.db,
		`SELECT owner_id, counterparty_id, balance, updated_at FROM balances
		 WHERE owner_id = ? OR counterparty_id = ?`,
		userID, userID,
	)
	if err != nil {
		return nil, err
	}

	positive := balances[:0]
	for _, b := range balances {
		if b.Balance.IsPositive() {
			positive = append(positive, b)
		}
	}
	sort.SliceStable(positive, func(i, j int) bool {
		if c := positive[i].Balance.Cmp(positive[j].Balance); c != 0 {
			return c > 0
		}
		if positive[i].OwnerID != positive[j].OwnerID {
			return positive[i].OwnerID < positive[j].OwnerID
		}
		return positive[i].CounterpartyID < positive[j].CounterpartyID
	})
	return positive, nil
}

func queryBalances(ctx context.Context, q querier, query string, args ...any) ([]models.Balance, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.OwnerID, &b.CounterpartyID, &b.Balance, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}
