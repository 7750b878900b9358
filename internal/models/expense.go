package models

// SplitType is how an expense amount is divided among its members.
type SplitType string

const (
	// SplitEqual divides the amount evenly. Shares carry no explicit amount.
	SplitEqual SplitType = "equal"
	// SplitCustom uses an explicit amount per member.
	SplitCustom SplitType = "custom"
	// SplitPercentage uses a percentage per member; amounts are derived at creation.
	SplitPercentage SplitType = "percentage"
)

// Valid reports whether t is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitCustom, SplitPercentage:
		return true
	}
	return false
}

// Expense is an amount spent on behalf of a group.
//
// Invariant (enforced at creation, trusted afterwards):
// sum(Payers.Amount) == Amount == sum(owed shares), within 0.01.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total amount spent.
	Amount float64

	// SplitType records how Splits were chosen.
	SplitType SplitType

	// Payers lists who paid and how much.
	Payers []Contribution

	// Splits lists who owes a part of the expense.
	Splits []Share

	// CreatedBy is the user who recorded the expense.
	CreatedBy UserID

	CreatedAt int64
	UpdatedAt int64
}

// Contribution is the amount one payer put towards an expense.
type Contribution struct {
	UserID UserID
	Amount float64
}

// Share is one member's part of an expense.
// Amount is zero for equal splits; the owed amount is then Amount/len(Splits).
type Share struct {
	UserID     UserID
	Amount     float64
	Percentage float64
}

// HasExplicitShares reports whether any share carries its own amount.
func (e *Expense) HasExplicitShares() bool {
	for _, s := range e.Splits {
		if s.Amount != 0 {
			return true
		}
	}
	return false
}

// Participants returns every payer and split member once, in first-seen order.
func (e *Expense) Participants() []UserID {
	seen := make(map[UserID]bool, len(e.Payers)+len(e.Splits))
	var ids []UserID
	for _, p := range e.Payers {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	for _, s := range e.Splits {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	return ids
}
