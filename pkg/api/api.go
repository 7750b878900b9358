// Package api defines the request and response messages of the splitledger
// RPC services. Messages travel as JSON; field names are snake_case.
package api

// User is a registered account, without credentials.
type User struct {
	ID          UserRef `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	CreatedAt   int64   `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Group is a set of users sharing expenses.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []UserRef `json:"members"`
	CreatedAt int64     `json:"created_at"`
}

type CreateGroupRequest struct {
	Name    string    `json:"name"`
	Members []UserRef `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

// ListGroupsRequest lists every group, or only those of MemberID when set.
type ListGroupsRequest struct {
	MemberID UserRef `json:"member_id,omitempty"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMembersRequest struct {
	GroupID string    `json:"group_id"`
	Members []UserRef `json:"members"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

type DegreeOfConnectionRequest struct {
	UserA UserRef `json:"user_a"`
	UserB UserRef `json:"user_b"`
}

// DegreeOfConnectionResponse carries the hop count: 0 for the same user,
// -1 when the users are not connected within three hops.
type DegreeOfConnectionResponse struct {
	Degree int `json:"degree"`
}

// Contribution is what one payer put towards an expense.
type Contribution struct {
	UserID UserRef `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Share is one member's part of an expense. Amount is set for custom splits,
// Percentage for percentage splits; equal splits leave both zero.
type Share struct {
	UserID     UserRef `json:"user_id"`
	Amount     float64 `json:"amount,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	SplitType   string          `json:"split_type"`
	Payers      []*Contribution `json:"payers"`
	Splits      []*Share        `json:"splits"`
	CreatedBy   UserRef         `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

type CreateExpenseRequest struct {
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	SplitType   string          `json:"split_type"`
	Payers      []*Contribution `json:"payers"`
	Splits      []*Share        `json:"splits"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID   string          `json:"expense_id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	SplitType   string          `json:"split_type"`
	Payers      []*Contribution `json:"payers"`
	Splits      []*Share        `json:"splits"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// Balance is a signed net amount: positive is owed to the user, negative is
// owed by the user.
type Balance struct {
	UserID UserRef `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Transaction is one transfer that clears debt.
type Transaction struct {
	From   UserRef `json:"from"`
	To     UserRef `json:"to"`
	Amount float64 `json:"amount"`
}

// Settlement is a stored settlement record.
type Settlement struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	DebtorID    UserRef `json:"debtor_id"`
	CreditorID  UserRef `json:"creditor_id"`
	AmountToPay float64 `json:"amount_to_pay"`
	Settled     bool    `json:"settled"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// ComputeSettlementsRequest recomputes and stores the group's settlements when
// Balances is empty. Otherwise Balances are matched and nothing is stored.
type ComputeSettlementsRequest struct {
	GroupID  string     `json:"group_id"`
	Balances []*Balance `json:"balances,omitempty"`
}

type ComputeSettlementsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Persisted    bool           `json:"persisted"`
}

// ListSettlementsRequest lists a group's records, or only those involving
// UserID when set.
type ListSettlementsRequest struct {
	GroupID string  `json:"group_id"`
	UserID  UserRef `json:"user_id,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type MarkSettledRequest struct {
	SettlementID string `json:"settlement_id"`
}

type MarkSettledResponse struct {
	Settlement *Settlement `json:"settlement"`
}
