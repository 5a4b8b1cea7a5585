package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SettlementForBalance represents a settlement with the minimal information needed for replay.
type SettlementForBalance struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// NetBalances replays obligations from userID's point of view and returns the signed
// net per counterparty (positive = userID owes them). Only unsettled obligations
// where userID is payer or participant count, and self-paid shares are skipped.
// Counterparties that net to zero are omitted.
func NetBalances(userID string, obligations []models.Obligation) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, o := range obligations {
		if o.IsSettled || o.PayerID == o.ParticipantID {
			continue
		}
		switch userID {
		case o.PayerID:
			// userID paid, the participant owes them
			net[o.ParticipantID] = net[o.ParticipantID].Sub(o.Amount)
		case o.ParticipantID:
			net[o.PayerID] = net[o.PayerID].Add(o.Amount)
		}
	}
	return pruneZero(net)
}

// ReplayAll replays every obligation (settled or not) and every settlement touching userID.
// Settled flags are ignored because the settlement that cleared them is itself replayed.
// The result is signed from userID's point of view, zero nets omitted.
func ReplayAll(userID string, obligations []models.Obligation, settlements []SettlementForBalance) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, o := range obligations {
		if o.PayerID == o.ParticipantID {
			continue
		}
		switch userID {
		case o.PayerID:
			net[o.ParticipantID] = net[o.ParticipantID].Sub(o.Amount)
		case o.ParticipantID:
			net[o.PayerID] = net[o.PayerID].Add(o.Amount)
		}
	}
	for _, s := range settlements {
		switch userID {
		case s.FromUserID:
			// paying someone reduces what userID owes them
			net[s.ToUserID] = net[s.ToUserID].Sub(s.Amount)
		case s.ToUserID:
			net[s.FromUserID] = net[s.FromUserID].Add(s.Amount)
		}
	}
	return pruneZero(net)
}

func pruneZero(net map[string]decimal.Decimal) map[string]decimal.Decimal {
	for k, v := range net {
		if v.IsZero() {
			delete(net, k)
		}
	}
	return net
}
