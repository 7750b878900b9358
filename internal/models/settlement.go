package models

// SettlementRecord is a persisted instruction for a debtor to pay a creditor.
//
// Records are created in bulk, unsettled, every time a group's settlements are
// recomputed, and replace every earlier unsettled record of that group. The only
// later change is the one-way transition to Settled by an explicit user action.
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// GroupID is the group this record belongs to.
	GroupID string

	// DebtorID is the user who has to pay.
	DebtorID UserID

	// CreditorID is the user who receives the payment.
	CreditorID UserID

	// AmountToPay is always positive.
	AmountToPay float64

	// Settled flips to true once, when the payment is confirmed.
	Settled bool

	CreatedAt int64
	UpdatedAt int64
}

// Involves reports whether the user is either party of the record.
func (r *SettlementRecord) Involves(userID UserID) bool {
	return r.DebtorID == userID || r.CreditorID == userID
}
