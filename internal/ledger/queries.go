package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// CounterpartyBalance is one counterparty as seen from the querying user.
type CounterpartyBalance struct {
	CounterpartyID string

	// Owed is what the counterparty owes the user.
	Owed decimal.Decimal

	// Owes is what the user owes the counterparty.
	Owes decimal.Decimal

	// Net is positive when the user owes the counterparty.
	Net decimal.Decimal
}

// Debt is one directed amount: FromUserID owes ToUserID.
type Debt struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// Balances returns the user's non-zero counterparty balances, largest magnitude first.
func (l *Ledger) Balances(ctx context.Context, userID string) ([]CounterpartyBalance, error) {
	rows, err := l.store.ListBalancesByOwner(ctx, userID)
	if err != nil {
		return nil, l.fail("balances", err)
	}

	balances := make([]CounterpartyBalance, 0, len(rows))
	for _, row := range rows {
		net := row.Balance
		cb := CounterpartyBalance{
			CounterpartyID: row.CounterpartyID,
			Owed:           decimal.Zero,
			Owes:           decimal.Zero,
			Net:            net,
		}
		if net.IsPositive() {
			cb.Owes = net
		} else {
			cb.Owed = net.Neg()
		}
		balances = append(balances, cb)
	}

	sort.Slice(balances, func(i, j int) bool {
		if c := balances[i].Net.Abs().Cmp(balances[j].Net.Abs()); c != 0 {
			return c > 0
		}
		return balances[i].CounterpartyID < balances[j].CounterpartyID
	})
	return balances, nil
}

// SimplifiedDebts returns every positive balance row involving the user, either
// as owner or as counterparty, largest first. Debts are not netted across
// users, so a cycle A→B→C→A is reported as-is.
func (l *Ledger) SimplifiedDebts(ctx context.Context, userID string) ([]Debt, error) {
	rows, err := l.store.ListPositiveBalancesTouching(ctx, userID)
	if err != nil {
		return nil, l.fail("simplified_debts", err)
	}

	debts := make([]Debt, len(rows))
	for i, row := range rows {
		debts[i] = Debt{
			FromUserID: row.OwnerID,
			ToUserID:   row.CounterpartyID,
			Amount:     row.Balance,
		}
	}
	return debts, nil
}
