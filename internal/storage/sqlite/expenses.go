package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `id, title, description, total_amount, currency, category, group_id,
	paid_by, split_method, expense_date, created_by, created_at, updated_at`

// GetExpense retrieves an expense by ID, including its participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, s.db, expenseID)
}

// ListExpensesByUser retrieves expenses the user paid for or takes part in,
// optionally restricted to one group.
func (s *SQLiteStore) ListExpensesByUser(ctx context.Context, userID string, opts storage.ListOptions) ([]*models.Expense, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE (paid_by = ? OR id IN (SELECT expense_id FROM expense_participants WHERE user_id = ?))
		   AND (? = '' OR group_id = ?)
		 ORDER BY expense_date DESC, created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, userID, opts.GroupID, opts.GroupID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if expense.Participants, err = listParticipants(ctx, s.db, expense.ID); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// CreateExpense inserts the expense and all of its participants.
func (t *txStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate ID if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := t.now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	if expense.ExpenseDate == 0 {
		expense.ExpenseDate = expense.CreatedAt
	}
	if expense.Category == "" {
		expense.Category = "general"
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Title, nullString(expense.Description), expense.TotalAmount,
		expense.Currency, expense.Category, nullString(expense.GroupID), expense.PaidBy,
		string(expense.SplitMethod), expense.ExpenseDate, expense.CreatedBy,
		expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Participants {
		p := &expense.Participants[i]
		p.ExpenseID = expense.ID
		_, err = t.q.ExecContext(ctx,
			`INSERT INTO expense_participants (expense_id, user_id, amount_owed, percentage, is_settled, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ExpenseID, p.UserID, p.AmountOwed, p.Percentage, p.IsSettled, nullInt(p.SettledAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	return nil
}

// GetExpense reads an expense inside the transaction.
func (t *txStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, t.q, expenseID)
}

// UpdateExpense updates the header fields of an expense.
// Participants and amounts are not touched.
func (t *txStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = t.now().Unix()
	result, err := t.q.ExecContext(ctx,
		`UPDATE expenses SET title = ?, description = ?, category = ?, expense_date = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Title, nullString(expense.Description), expense.Category, expense.ExpenseDate,
		expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return expectOneRow(result, "expense", expense.ID)
}

// DeleteExpense removes an expense; participants cascade.
func (t *txStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectOneRow(result, "expense", expenseID)
}

// MarkParticipantSettled flags one participant row as settled.
func (t *txStore) MarkParticipantSettled(ctx context.Context, expenseID, userID string, settledAt int64) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE expense_participants SET is_settled = 1, settled_at = ?
		 WHERE expense_id = ? AND user_id = ?`,
		settledAt, expenseID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark participant settled: %w", err)
	}
	return expectOneRow(result, "participant", expenseID+"/"+userID)
}

// ListObligations returns participant rows joined with the expense payer.
func (t *txStore) ListObligations(ctx context.Context, userID string, unsettledOnly bool) ([]models.Obligation, error) {
	query := `SELECT ep.expense_id, e.paid_by, ep.user_id, ep.amount_owed, ep.is_settled
		FROM expenses e
		JOIN expense_participants ep ON e.id = ep.expense_id
		WHERE (e.paid_by = ? OR ep.user_id = ?)
		  AND e.paid_by != ep.user_id`
	if unsettledOnly {
		query += ` AND ep.is_settled = 0`
	}
	query += ` ORDER BY ep.expense_id, ep.user_id`

	rows, err := t.q.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obligations []models.Obligation
	for rows.Next() {
		var o models.Obligation
		if err := rows.Scan(&o.ExpenseID, &o.PayerID, &o.ParticipantID, &o.Amount, &o.IsSettled); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate obligations: %w", err)
	}
	return obligations, nil
}

func getExpense(ctx context.Context, q querier, expenseID string) (*models.Expense, error) {
	row := q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID)
	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	expense.Participants, err = listParticipants(ctx, q, expenseID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var description, groupID sql.NullString
	var method string

	err := row.Scan(&expense.ID, &expense.Title, &description, &expense.TotalAmount,
		&expense.Currency, &expense.Category, &groupID, &expense.PaidBy, &method,
		&expense.ExpenseDate, &expense.CreatedBy, &expense.CreatedAt, &expense.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	expense.Description = description.String
	expense.GroupID = groupID.String
	expense.SplitMethod = models.SplitMethod(method)
	return expense, nil
}

func listParticipants(ctx context.Context, q querier, expenseID string) ([]models.ExpenseParticipant, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT expense_id, user_id, amount_owed, percentage, is_settled, settled_at
		 FROM expense_participants WHERE expense_id = ? ORDER BY user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.ExpenseParticipant
	for rows.Next() {
		var p models.ExpenseParticipant
		var settledAt sql.NullInt64
		if err := rows.Scan(&p.ExpenseID, &p.UserID, &p.AmountOwed, &p.Percentage, &p.IsSettled, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.SettledAt = settledAt.Int64
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func expectOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
