package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Tolerance is the noise floor for money: balances, shares and transfers whose
// magnitude is below it are treated as zero.
const Tolerance = 0.01

var (
	tolerance = decimal.NewFromFloat(Tolerance)
	hundred   = decimal.NewFromInt(100)
)

// ErrInvalidExpense is returned when an expense fails validation at creation.
var ErrInvalidExpense = errors.New("invalid expense")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidExpense, fmt.Sprintf(format, args...))
}

// BuildShares validates the chosen split of amount and returns the shares to persist.
//
// Equal splits keep no per-member amount (each member owes amount/len(shares)).
// Custom splits must sum to amount and percentage splits to 100, both within
// Tolerance. Percentage shares get their amounts derived here, rounded to cents,
// with the rounding remainder assigned to the last member so they sum to amount.
func BuildShares(splitType models.SplitType, amount float64, shares []models.Share) ([]models.Share, error) {
	if amount <= 0 {
		return nil, invalid("amount must be positive")
	}
	if len(shares) == 0 {
		return nil, invalid("must have at least one split member")
	}
	if err := checkUnique(shares); err != nil {
		return nil, err
	}

	total := decimal.NewFromFloat(amount)
	out := make([]models.Share, len(shares))

	switch splitType {
	case models.SplitEqual:
		for i, s := range shares {
			out[i] = models.Share{UserID: s.UserID}
		}

	case models.SplitCustom:
		sum := decimal.Zero
		for i, s := range shares {
			if s.Amount < 0 {
				return nil, invalid("share of %s cannot be negative", s.UserID)
			}
			sum = sum.Add(decimal.NewFromFloat(s.Amount))
			out[i] = models.Share{UserID: s.UserID, Amount: s.Amount}
		}
		if sum.Sub(total).Abs().GreaterThan(tolerance) {
			return nil, invalid("custom shares sum to %s, expected %s", sum.StringFixed(2), total.StringFixed(2))
		}

	case models.SplitPercentage:
		pctSum := decimal.Zero
		for _, s := range shares {
			if s.Percentage < 0 {
				return nil, invalid("percentage of %s cannot be negative", s.UserID)
			}
			pctSum = pctSum.Add(decimal.NewFromFloat(s.Percentage))
		}
		if pctSum.Sub(hundred).Abs().GreaterThan(tolerance) {
			return nil, invalid("percentages sum to %s, expected 100", pctSum.StringFixed(2))
		}

		assigned := decimal.Zero
		for i, s := range shares {
			part := total.Mul(decimal.NewFromFloat(s.Percentage)).Div(hundred).Round(2)
			if i == len(shares)-1 {
				part = total.Sub(assigned)
			}
			assigned = assigned.Add(part)
			out[i] = models.Share{UserID: s.UserID, Amount: part.InexactFloat64(), Percentage: s.Percentage}
		}

	default:
		return nil, invalid("unknown split type %q", splitType)
	}

	return out, nil
}

// ValidatePayers checks that contributions are non-negative, name each payer
// once and sum to amount within Tolerance.
func ValidatePayers(amount float64, payers []models.Contribution) error {
	if len(payers) == 0 {
		return invalid("must have at least one payer")
	}
	seen := make(map[models.UserID]bool, len(payers))
	sum := decimal.Zero
	for _, p := range payers {
		if p.UserID == "" {
			return invalid("payer id is required")
		}
		if seen[p.UserID] {
			return invalid("payer %s listed twice", p.UserID)
		}
		seen[p.UserID] = true
		if p.Amount < 0 {
			return invalid("payment of %s cannot be negative", p.UserID)
		}
		sum = sum.Add(decimal.NewFromFloat(p.Amount))
	}
	if sum.Sub(decimal.NewFromFloat(amount)).Abs().GreaterThan(tolerance) {
		return invalid("payments sum to %s, expected %.2f", sum.StringFixed(2), amount)
	}
	return nil
}

func checkUnique(shares []models.Share) error {
	seen := make(map[models.UserID]bool, len(shares))
	for _, s := range shares {
		if s.UserID == "" {
			return invalid("split member id is required")
		}
		if seen[s.UserID] {
			return invalid("split member %s listed twice", s.UserID)
		}
		seen[s.UserID] = true
	}
	return nil
}
