package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Balances maps each user to their net balance within a group.
// Positive = owed money (creditor), negative = owes money (debtor).
type Balances map[models.UserID]float64

// Entry is one user's signed balance.
type Entry struct {
	UserID models.UserID
	Amount float64
}

// FromEntries builds Balances from a list of entries, summing repeated users.
func FromEntries(entries []Entry) Balances {
	b := make(Balances, len(entries))
	for _, e := range entries {
		b[e.UserID] += e.Amount
	}
	return b
}

// Entries returns the balances sorted by user ID.
func (b Balances) Entries() []Entry {
	entries := make([]Entry, 0, len(b))
	for id, amount := range b {
		entries = append(entries, Entry{UserID: id, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}

// ComputationError reports an expense whose stored numbers cannot produce a
// consistent balance. It indicates a validation gap upstream of the engine.
type ComputationError struct {
	ExpenseID string
	Reason    string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compute balances: expense %s: %s", e.ExpenseID, e.Reason)
}

// Aggregate computes every user's net balance across a group's expenses:
// the sum of what they paid minus the sum of what they owe.
//
// Shares with explicit amounts are subtracted as stored; equal splits subtract
// amount/len(splits) from each member. Expenses without split members, or whose
// paid or owed totals differ from the amount by more than Tolerance, are
// rejected with a *ComputationError instead of skewing the result.
func Aggregate(expenses []models.Expense) (Balances, error) {
	balances := make(Balances)

	for i := range expenses {
		e := &expenses[i]
		if err := checkConsistency(e); err != nil {
			return nil, err
		}

		for _, p := range e.Payers {
			balances[p.UserID] += p.Amount
		}

		explicit := e.HasExplicitShares()
		equalShare := e.Amount / float64(len(e.Splits))
		for _, s := range e.Splits {
			owed := equalShare
			if explicit {
				owed = s.Amount
			}
			balances[s.UserID] -= owed
		}
	}

	return balances, nil
}

func checkConsistency(e *models.Expense) error {
	if len(e.Splits) == 0 {
		return &ComputationError{ExpenseID: e.ID, Reason: "no split members"}
	}

	total := decimal.NewFromFloat(e.Amount)

	paid := decimal.Zero
	for _, p := range e.Payers {
		paid = paid.Add(decimal.NewFromFloat(p.Amount))
	}
	if paid.Sub(total).Abs().GreaterThan(tolerance) {
		return &ComputationError{
			ExpenseID: e.ID,
			Reason:    fmt.Sprintf("paid %s but amount is %s", paid.StringFixed(2), total.StringFixed(2)),
		}
	}

	if e.HasExplicitShares() {
		owed := decimal.Zero
		for _, s := range e.Splits {
			owed = owed.Add(decimal.NewFromFloat(s.Amount))
		}
		if owed.Sub(total).Abs().GreaterThan(tolerance) {
			return &ComputationError{
				ExpenseID: e.ID,
				Reason:    fmt.Sprintf("owed %s but amount is %s", owed.StringFixed(2), total.StringFixed(2)),
			}
		}
	}

	return nil
}

// Total returns the sum of all balances. It is zero, up to float noise, for
// balances derived from consistent expenses.
func (b Balances) Total() float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	if math.Abs(sum) < Tolerance {
		return 0
	}
	return sum
}
