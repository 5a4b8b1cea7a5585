package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidSplitMethod  = errors.New("invalid split method")
	ErrEmptyParticipantSet = errors.New("must have at least one participant")
	ErrSplitMismatch       = errors.New("split does not add up")
)

var (
	hundred = decimal.NewFromInt(100)

	// Tolerance is the accepted difference between a split and its target, in currency units.
	Tolerance = decimal.New(1, -2)
)

// ParticipantInput is one participant as supplied by the caller.
// Amount is read by the exact method, Percentage by the percentage method.
type ParticipantInput struct {
	UserID     string
	Amount     *decimal.Decimal
	Percentage *decimal.Decimal
}

// Share is the calculated obligation for one participant.
type Share struct {
	UserID     string
	AmountOwed decimal.Decimal
	Percentage *decimal.Decimal
}

// Round2 rounds to the currency minor unit (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeSplit divides total among participants using method.
//
//   - equal: round2(total / n) each; the rounding remainder is not redistributed,
//     so the sum may differ from total by up to n * 0.005
//   - exact: each participant's given amount (missing = 0), no cross-checking
//   - percentage: round2(total * pct / 100) each
//
// Output order follows input order.
func ComputeSplit(total decimal.Decimal, participants []ParticipantInput, method models.SplitMethod) ([]Share, error) {
	switch method {
	case models.SplitEqual:
		if len(participants) == 0 {
			return nil, ErrEmptyParticipantSet
		}
		each := Round2(total.Div(decimal.NewFromInt(int64(len(participants)))))
		shares := make([]Share, len(participants))
		for i, p := range participants {
			shares[i] = Share{UserID: p.UserID, AmountOwed: each}
		}
		return shares, nil

	case models.SplitExact:
		shares := make([]Share, len(participants))
		for i, p := range participants {
			amount := decimal.Zero
			if p.Amount != nil {
				amount = *p.Amount
			}
			shares[i] = Share{UserID: p.UserID, AmountOwed: amount}
		}
		return shares, nil

	case models.SplitPercentage:
		shares := make([]Share, len(participants))
		for i, p := range participants {
			pct := decimal.Zero
			if p.Percentage != nil {
				pct = *p.Percentage
			}
			shares[i] = Share{
				UserID:     p.UserID,
				AmountOwed: Round2(total.Mul(pct).Div(hundred)),
				Percentage: p.Percentage,
			}
		}
		return shares, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidSplitMethod, method)
}

// ValidateExact checks that exact amounts are non-negative and sum to total within Tolerance.
func ValidateExact(total decimal.Decimal, participants []ParticipantInput) error {
	sum := decimal.Zero
	for _, p := range participants {
		if p.Amount == nil {
			return fmt.Errorf("%w: missing amount for %s", ErrSplitMismatch, p.UserID)
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("%w: negative amount for %s", ErrSplitMismatch, p.UserID)
		}
		sum = sum.Add(*p.Amount)
	}
	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: amounts sum to %s, total is %s", ErrSplitMismatch, sum, total)
	}
	return nil
}

// ValidatePercentages checks that percentages are non-negative and sum to 100 within Tolerance.
func ValidatePercentages(participants []ParticipantInput) error {
	sum := decimal.Zero
	for _, p := range participants {
		if p.Percentage == nil {
			return fmt.Errorf("%w: missing percentage for %s", ErrSplitMismatch, p.UserID)
		}
		if p.Percentage.IsNegative() {
			return fmt.Errorf("%w: negative percentage for %s", ErrSplitMismatch, p.UserID)
		}
		sum = sum.Add(*p.Percentage)
	}
	if sum.Sub(hundred).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: percentages sum to %s", ErrSplitMismatch, sum)
	}
	return nil
}
