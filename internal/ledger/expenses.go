package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// NewExpense is the input to CreateExpense.
type NewExpense struct {
	Title        string
	Description  string
	TotalAmount  decimal.Decimal
	Currency     string
	Category     string
	GroupID      string
	PaidBy       string
	SplitMethod  models.SplitMethod
	ExpenseDate  int64
	CreatedBy    string
	Participants []calculator.ParticipantInput
}

// ExpenseUpdate carries the header fields to change. Nil fields are left as they are.
type ExpenseUpdate struct {
	Title       *string
	Description *string
	Category    *string
	ExpenseDate *int64
}

func (n NewExpense) validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidExpense)
	}
	if !n.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: total amount must be positive", ErrInvalidExpense)
	}
	if n.PaidBy == "" {
		return fmt.Errorf("%w: payer is required", ErrInvalidExpense)
	}
	if n.CreatedBy == "" {
		return fmt.Errorf("%w: created_by is required", ErrInvalidExpense)
	}
	if len(n.Participants) == 0 {
		return calculator.ErrEmptyParticipantSet
	}

	seen := make(map[string]bool, len(n.Participants))
	for _, p := range n.Participants {
		if p.UserID == "" {
			return fmt.Errorf("%w: participant without user id", ErrInvalidExpense)
		}
		if seen[p.UserID] {
			return fmt.Errorf("%w: duplicate participant %s", ErrInvalidExpense, p.UserID)
		}
		seen[p.UserID] = true
	}

	switch n.SplitMethod {
	case models.SplitExact:
		return calculator.ValidateExact(n.TotalAmount, n.Participants)
	case models.SplitPercentage:
		return calculator.ValidatePercentages(n.Participants)
	}
	return nil
}

// CreateExpense validates the input, splits the total and stores the expense
// with its participants.
func (l *Ledger) CreateExpense(ctx context.Context, in NewExpense) (*models.Expense, error) {
	if in.SplitMethod == "" {
		in.SplitMethod = models.SplitEqual
	}
	if err := in.validate(); err != nil {
		return nil, l.fail("create_expense", err)
	}

	shares, err := calculator.ComputeSplit(in.TotalAmount, in.Participants, in.SplitMethod)
	if err != nil {
		return nil, l.fail("create_expense", err)
	}

	participants := make([]models.ExpenseParticipant, len(shares))
	for i, share := range shares {
		participants[i] = models.ExpenseParticipant{
			UserID:     share.UserID,
			AmountOwed: share.AmountOwed,
		}
		if share.Percentage != nil {
			participants[i].Percentage = decimal.NewNullDecimal(*share.Percentage)
		}
	}

	var expense *models.Expense
	err = l.store.InTx(ctx, func(tx storage.Tx) error {
		expense = &models.Expense{
			Title:        strings.TrimSpace(in.Title),
			Description:  in.Description,
			TotalAmount:  in.TotalAmount,
			Currency:     currencyOrDefault(in.Currency),
			Category:     in.Category,
			GroupID:      in.GroupID,
			PaidBy:       in.PaidBy,
			SplitMethod:  in.SplitMethod,
			ExpenseDate:  in.ExpenseDate,
			CreatedBy:    in.CreatedBy,
			Participants: append([]models.ExpenseParticipant(nil), participants...),
		}
		return tx.CreateExpense(ctx, expense)
	})
	if err != nil {
		slog.Error("Failed to create expense", "title", in.Title, "paid_by", in.PaidBy, "error", err)
		return nil, l.fail("create_expense", err)
	}

	l.metrics.ExpensesCreated.Inc()
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"paid_by", expense.PaidBy,
		"total", expense.TotalAmount.String(),
		"participants", len(expense.Participants),
	)
	return expense, nil
}

// GetExpense returns an expense with its participants.
func (l *Ledger) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, l.fail("get_expense", err)
	}
	return expense, nil
}

// ListExpenses returns expenses the user paid for or takes part in, newest
// first. opts.GroupID narrows the page to one group.
func (l *Ledger) ListExpenses(ctx context.Context, userID string, opts storage.ListOptions) ([]*models.Expense, error) {
	expenses, err := l.store.ListExpensesByUser(ctx, userID, opts)
	if err != nil {
		return nil, l.fail("list_expenses", err)
	}
	return expenses, nil
}

// ExpenseSummary counts and totals what the user paid and owes across expenses.
func (l *Ledger) ExpenseSummary(ctx context.Context, userID string) (models.ExpenseSummary, error) {
	summary, err := l.store.ExpenseSummary(ctx, userID)
	if err != nil {
		return summary, l.fail("expense_summary", err)
	}
	return summary, nil
}

// UpdateExpense changes header fields of an expense. Amounts and participants
// are immutable. Expenses with settled participants are locked.
func (l *Ledger) UpdateExpense(ctx context.Context, expenseID string, update ExpenseUpdate) (*models.Expense, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, l.fail("update_expense", fmt.Errorf("%w: title cannot be empty", ErrInvalidExpense))
	}

	var expense *models.Expense
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		expense, err = tx.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense.HasSettledParticipants() {
			return fmt.Errorf("%w: %s", ErrExpenseLocked, expenseID)
		}

		if update.Title != nil {
			expense.Title = strings.TrimSpace(*update.Title)
		}
		if update.Description != nil {
			expense.Description = *update.Description
		}
		if update.Category != nil && *update.Category != "" {
			expense.Category = *update.Category
		}
		if update.ExpenseDate != nil {
			expense.ExpenseDate = *update.ExpenseDate
		}
		return tx.UpdateExpense(ctx, expense)
	})
	if err != nil {
		return nil, l.fail("update_expense", err)
	}

	slog.Info("Expense updated", "expense_id", expenseID)
	return expense, nil
}

// DeleteExpense removes an expense and its participants. Expenses with settled
// participants are locked. Stored balances are not touched; run Recompute or
// Rebuild to drop the expense's effect.
func (l *Ledger) DeleteExpense(ctx context.Context, expenseID string) error {
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		expense, err := tx.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense.HasSettledParticipants() {
			return fmt.Errorf("%w: %s", ErrExpenseLocked, expenseID)
		}
		return tx.DeleteExpense(ctx, expenseID)
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, ErrExpenseLocked) {
			slog.Error("Failed to delete expense", "expense_id", expenseID, "error", err)
		}
		return l.fail("delete_expense", err)
	}

	slog.Info("Expense deleted", "expense_id", expenseID)
	return nil
}
