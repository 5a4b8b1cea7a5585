package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage split keeps percentages", func(t *testing.T) {
		f := newFixture(t)
		expense, err := f.ledger.CreateExpense(ctx, NewExpense{
			Title:       "Groceries",
			TotalAmount: dec("80"),
			Currency:    "eur",
			PaidBy:      "bob",
			SplitMethod: models.SplitPercentage,
			CreatedBy:   "bob",
			Participants: []calculator.ParticipantInput{
				{UserID: "alice", Percentage: decp("25")},
				{UserID: "bob", Percentage: decp("75")},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "EUR", expense.Currency)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExpensesCreated))

		got, err := f.ledger.GetExpense(ctx, expense.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(got.Participants))
		for _, p := range got.Participants {
			assert.True(t, p.Percentage.Valid)
			switch p.UserID {
			case "alice":
				assertDec(t, "20", p.AmountOwed)
			case "bob":
				assertDec(t, "60", p.AmountOwed)
			}
		}
	})

	t.Run("empty method defaults to equal", func(t *testing.T) {
		f := newFixture(t)
		expense, err := f.ledger.CreateExpense(ctx, NewExpense{
			Title:        "Coffee",
			TotalAmount:  dec("10"),
			PaidBy:       "alice",
			CreatedBy:    "alice",
			Participants: []calculator.ParticipantInput{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, models.SplitEqual, expense.SplitMethod)
		for _, p := range expense.Participants {
			assertDec(t, "3.33", p.AmountOwed)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		valid := func() NewExpense {
			return NewExpense{
				Title:        "Dinner",
				TotalAmount:  dec("90"),
				PaidBy:       "alice",
				SplitMethod:  models.SplitEqual,
				CreatedBy:    "alice",
				Participants: []calculator.ParticipantInput{{UserID: "alice"}, {UserID: "bob"}},
			}
		}
		tests := []struct {
			name    string
			mutate  func(*NewExpense)
			wantErr error
		}{
			{"blank title", func(n *NewExpense) { n.Title = "  " }, ErrInvalidExpense},
			{"zero total", func(n *NewExpense) { n.TotalAmount = dec("0") }, ErrInvalidExpense},
			{"no payer", func(n *NewExpense) { n.PaidBy = "" }, ErrInvalidExpense},
			{"no participants", func(n *NewExpense) { n.Participants = nil }, calculator.ErrEmptyParticipantSet},
			{"duplicate participant", func(n *NewExpense) {
				n.Participants = append(n.Participants, calculator.ParticipantInput{UserID: "bob"})
			}, ErrInvalidExpense},
			{"unknown method", func(n *NewExpense) { n.SplitMethod = "shares" }, calculator.ErrInvalidSplitMethod},
			{"exact amounts off", func(n *NewExpense) {
				n.SplitMethod = models.SplitExact
				n.Participants = []calculator.ParticipantInput{
					{UserID: "alice", Amount: decp("40")},
					{UserID: "bob", Amount: decp("40")},
				}
			}, calculator.ErrSplitMismatch},
			{"percentages off", func(n *NewExpense) {
				n.SplitMethod = models.SplitPercentage
				n.Participants = []calculator.ParticipantInput{
					{UserID: "alice", Percentage: decp("50")},
					{UserID: "bob", Percentage: decp("49")},
				}
			}, calculator.ErrSplitMismatch},
		}

		f := newFixture(t)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := valid()
				tt.mutate(&in)
				_, err := f.ledger.CreateExpense(ctx, in)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, IsValidation(err))
			})
		}

		list, err := f.ledger.ListExpenses(ctx, "alice", storage.ListOptions{Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, 0, len(list))
	})
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("update header fields", func(t *testing.T) {
		f := newFixture(t)
		expense := f.dinner(t)

		title, category, date := "Team dinner", "food", int64(1_690_000_000)
		updated, err := f.ledger.UpdateExpense(ctx, expense.ID, ExpenseUpdate{
			Title: &title, Category: &category, ExpenseDate: &date,
		})
		assert.NoError(t, err)
		assert.Equal(t, "Team dinner", updated.Title)

		got, err := f.ledger.GetExpense(ctx, expense.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Team dinner", got.Title)
		assert.Equal(t, "food", got.Category)
		assert.Equal(t, date, got.ExpenseDate)
		assertDec(t, "300", got.TotalAmount)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		f := newFixture(t)
		expense := f.dinner(t)
		blank := ""
		_, err := f.ledger.UpdateExpense(ctx, expense.ID, ExpenseUpdate{Title: &blank})
		assert.True(t, errors.Is(err, ErrInvalidExpense))
	})

	t.Run("settled participants lock the expense", func(t *testing.T) {
		f := newFixture(t)
		expense := f.dinner(t)
		_, err := f.ledger.RecordSettlement(ctx, NewSettlement{
			FromUserID: "carol", ToUserID: "alice", Amount: dec("100"), ExpenseID: expense.ID, CreatedBy: "carol",
		})
		assert.NoError(t, err)

		title := "Renamed"
		_, err = f.ledger.UpdateExpense(ctx, expense.ID, ExpenseUpdate{Title: &title})
		assert.True(t, errors.Is(err, ErrExpenseLocked))

		err = f.ledger.DeleteExpense(ctx, expense.ID)
		assert.True(t, errors.Is(err, ErrExpenseLocked))

		got, err := f.ledger.GetExpense(ctx, expense.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Dinner", got.Title)
	})

	t.Run("delete drops the expense from recompute", func(t *testing.T) {
		f := newFixture(t)
		expense := f.dinner(t)
		assert.NoError(t, f.ledger.Recompute(ctx, "alice"))
		assert.Equal(t, 2, len(f.snapshot(t, "alice")))

		assert.NoError(t, f.ledger.DeleteExpense(ctx, expense.ID))
		// stored rows stay until the next replay
		assert.Equal(t, 2, len(f.snapshot(t, "alice")))

		assert.NoError(t, f.ledger.Recompute(ctx, "alice"))
		assert.Equal(t, 0, len(f.snapshot(t, "alice")))

		_, err := f.ledger.GetExpense(ctx, expense.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.True(t, errors.Is(f.ledger.DeleteExpense(ctx, expense.ID), storage.ErrNotFound))
	})
}

func TestGroupListsAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	expense, err := f.ledger.CreateExpense(ctx, NewExpense{
		Title:       "Cabin",
		TotalAmount: dec("90"),
		GroupID:     "trip",
		PaidBy:      "alice",
		SplitMethod: models.SplitEqual,
		CreatedBy:   "alice",
		Participants: []calculator.ParticipantInput{
			{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"},
		},
	})
	assert.NoError(t, err)
	f.dinner(t)

	_, err = f.ledger.RecordSettlement(ctx, NewSettlement{
		FromUserID: "bob", ToUserID: "alice", Amount: dec("30"), ExpenseID: expense.ID, CreatedBy: "bob",
	})
	assert.NoError(t, err)
	_, err = f.ledger.RecordSettlement(ctx, NewSettlement{
		FromUserID: "carol", ToUserID: "alice", Amount: dec("12.50"), CreatedBy: "carol",
	})
	assert.NoError(t, err)

	expenses, err := f.ledger.ListExpenses(ctx, "bob", storage.ListOptions{GroupID: "trip"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(expenses))
	assert.Equal(t, expense.ID, expenses[0].ID)

	settlements, err := f.ledger.ListSettlements(ctx, "alice", storage.ListOptions{GroupID: "trip"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(settlements))
	assert.Equal(t, "bob", settlements[0].FromUserID)

	settlements, err = f.ledger.ListSettlements(ctx, "alice", storage.ListOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(settlements))

	stats, err := f.ledger.SettlementStats(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.PaymentsMade)
	assert.Equal(t, 2, stats.PaymentsReceived)
	assertDec(t, "42.50", stats.TotalReceived)

	summary, err := f.ledger.ExpenseSummary(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.ExpensesPaid)
	assertDec(t, "390", summary.TotalPaid)
	assert.Equal(t, 2, summary.ExpensesInvolved)
	assertDec(t, "130", summary.TotalOwed)
	assert.Equal(t, 2, summary.RecentExpenses)
}
