package report

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

type fakeSource struct {
	balances []ledger.CounterpartyBalance
	debts    []ledger.Debt
	stats    models.SettlementStats
	summary  models.ExpenseSummary
	err      error
}

func (f *fakeSource) Balances(context.Context, string) ([]ledger.CounterpartyBalance, error) {
	return f.balances, f.err
}

func (f *fakeSource) SimplifiedDebts(context.Context, string) ([]ledger.Debt, error) {
	return f.debts, f.err
}

func (f *fakeSource) SettlementStats(context.Context, string) (models.SettlementStats, error) {
	return f.stats, f.err
}

func (f *fakeSource) ExpenseSummary(context.Context, string) (models.ExpenseSummary, error) {
	return f.summary, f.err
}

func net(cp, amount string) ledger.CounterpartyBalance {
	return ledger.CounterpartyBalance{CounterpartyID: cp, Net: decimal.RequireFromString(amount)}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name              string
		balances          []ledger.CounterpartyBalance
		owedToMe, iOwe, n string
	}{
		{"empty", nil, "0", "0", "0"},
		{"only owed", []ledger.CounterpartyBalance{net("bob", "-100"), net("carol", "-25.50")}, "125.50", "0", "-125.50"},
		{"mixed", []ledger.CounterpartyBalance{net("bob", "-100"), net("carol", "40")}, "100", "40", "-60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.balances)
			assert.True(t, decimal.RequireFromString(tt.owedToMe).Equal(s.TotalOwedToMe), "owed to me %s", s.TotalOwedToMe)
			assert.True(t, decimal.RequireFromString(tt.iOwe).Equal(s.TotalIOwe), "i owe %s", s.TotalIOwe)
			assert.True(t, decimal.RequireFromString(tt.n).Equal(s.Net), "net %s", s.Net)
		})
	}
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		balances: []ledger.CounterpartyBalance{net("bob", "-10")},
		debts:    []ledger.Debt{{FromUserID: "bob", ToUserID: "alice", Amount: decimal.NewFromInt(10)}},
	}
	r := New(source)

	report, err := r.Report(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, "alice", report.UserID)
	assert.Equal(t, 1, len(report.Balances))
	assert.Equal(t, 1, len(report.Debts))
	assert.True(t, decimal.NewFromInt(10).Equal(report.Summary.TotalOwedToMe))

	source.err = errors.New("db down")
	_, err = r.Report(ctx, "alice")
	assert.Error(t, err)
	_, err = r.Summary(ctx, "alice")
	assert.Error(t, err)
}

func TestActivity(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		stats:   models.SettlementStats{PaymentsMade: 2, TotalPaid: decimal.RequireFromString("15.75")},
		summary: models.ExpenseSummary{ExpensesPaid: 1, TotalPaid: decimal.NewFromInt(300), ExpensesInvolved: 3},
	}
	r := New(source)

	stats, err := r.SettlementStats(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.PaymentsMade)
	assert.Equal(t, "15.75", stats.TotalPaid.String())

	summary, err := r.ExpenseSummary(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.ExpensesInvolved)

	source.err = errors.New("db down")
	_, err = r.SettlementStats(ctx, "alice")
	assert.Error(t, err)
	_, err = r.ExpenseSummary(ctx, "alice")
	assert.Error(t, err)
}
