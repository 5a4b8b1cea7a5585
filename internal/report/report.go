// Package report builds read-only debt views for a user.
package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Source is the subset of the ledger the reporter reads from.
type Source interface {
	Balances(ctx context.Context, userID string) ([]ledger.CounterpartyBalance, error)
	SimplifiedDebts(ctx context.Context, userID string) ([]ledger.Debt, error)
	SettlementStats(ctx context.Context, userID string) (models.SettlementStats, error)
	ExpenseSummary(ctx context.Context, userID string) (models.ExpenseSummary, error)
}

// Summary totals a user's balances.
type Summary struct {
	TotalOwedToMe decimal.Decimal
	TotalIOwe     decimal.Decimal

	// Net is TotalIOwe - TotalOwedToMe; positive means the user owes overall.
	Net decimal.Decimal
}

// Report bundles everything a dashboard needs for one user.
type Report struct {
	UserID   string
	Balances []ledger.CounterpartyBalance
	Debts    []ledger.Debt
	Summary  Summary
}

// Reporter answers read-only questions about balances.
type Reporter struct {
	source Source
}

// New creates a Reporter.
func New(source Source) *Reporter {
	return &Reporter{source: source}
}

// Balances returns the user's counterparty balances, largest first.
func (r *Reporter) Balances(ctx context.Context, userID string) ([]ledger.CounterpartyBalance, error) {
	return r.source.Balances(ctx, userID)
}

// SimplifiedDebts returns the directed debts touching the user.
func (r *Reporter) SimplifiedDebts(ctx context.Context, userID string) ([]ledger.Debt, error) {
	return r.source.SimplifiedDebts(ctx, userID)
}

// SettlementStats counts and totals the payments the user made and received.
func (r *Reporter) SettlementStats(ctx context.Context, userID string) (models.SettlementStats, error) {
	return r.source.SettlementStats(ctx, userID)
}

// ExpenseSummary counts and totals the expenses the user paid or shares in.
func (r *Reporter) ExpenseSummary(ctx context.Context, userID string) (models.ExpenseSummary, error) {
	return r.source.ExpenseSummary(ctx, userID)
}

// Summary totals the user's balances.
func (r *Reporter) Summary(ctx context.Context, userID string) (Summary, error) {
	balances, err := r.source.Balances(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(balances), nil
}

// Report collects balances, debts and their summary.
func (r *Reporter) Report(ctx context.Context, userID string) (*Report, error) {
	balances, err := r.source.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}
	debts, err := r.source.SimplifiedDebts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Report{
		UserID:   userID,
		Balances: balances,
		Debts:    debts,
		Summary:  Summarize(balances),
	}, nil
}

// Summarize totals balances already loaded.
func Summarize(balances []ledger.CounterpartyBalance) Summary {
	s := Summary{TotalOwedToMe: decimal.Zero, TotalIOwe: decimal.Zero}
	for _, b := range balances {
		if b.Net.IsPositive() {
			s.TotalIOwe = s.TotalIOwe.Add(b.Net)
		} else {
			s.TotalOwedToMe = s.TotalOwedToMe.Sub(b.Net)
		}
	}
	s.Net = s.TotalIOwe.Sub(s.TotalOwedToMe)
	return s
}
