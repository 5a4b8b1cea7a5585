package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = `id, from_user_id, to_user_id, amount, currency, expense_id, notes,
	settlement_date, created_by, created_at`

// CreateSettlement persists a new settlement.
func (t *txStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = t.now().Unix()
	}
	if settlement.SettlementDate == 0 {
		settlement.SettlementDate = settlement.CreatedAt
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.FromUserID, settlement.ToUserID, settlement.Amount,
		settlement.Currency, nullString(settlement.ExpenseID), nullString(settlement.Notes),
		settlement.SettlementDate, settlement.CreatedBy, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement reads a settlement inside the transaction.
func (t *txStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return getSettlement(ctx, t.q, settlementID)
}

// DeleteSettlement removes a settlement by ID.
func (t *txStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return expectOneRow(result, "settlement", settlementID)
}

// ListSettlementsTouching returns every settlement the user paid or received.
func (t *txStore) ListSettlementsTouching(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return querySettlements(ctx, t.q,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE from_user_id = ? OR to_user_id = ?
		 ORDER BY settlement_date, created_at`,
		userID, userID,
	)
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return getSettlement(ctx, s.db, settlementID)
}

// ListSettlementsByUser retrieves a page of the user's settlements, newest
// first. A group filter matches settlements linked to that group's expenses.
func (s *SQLiteStore) ListSettlementsByUser(ctx context.Context, userID string, opts storage.ListOptions) ([]*models.Settlement, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	return querySettlements(ctx, s.db,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE (from_user_id = ? OR to_user_id = ?)
		   AND (? = '' OR expense_id IN (SELECT id FROM expenses WHERE group_id = ?))
		 ORDER BY settlement_date DESC, created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, userID, opts.GroupID, opts.GroupID, limit, opts.Offset,
	)
}

func getSettlement(ctx context.Context, q querier, settlementID string) (*models.Settlement, error) {
	row := q.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = ?`, settlementID)
	settlement, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func querySettlements(ctx context.Context, q querier, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var expenseID, notes sql.NullString

	err := row.Scan(&settlement.ID, &settlement.FromUserID, &settlement.ToUserID, &settlement.Amount,
		&settlement.Currency, &expenseID, &notes, &settlement.SettlementDate,
		&settlement.CreatedBy, &settlement.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}

	settlement.ExpenseID = expenseID.String
	settlement.Notes = notes.String
	return settlement, nil
}
