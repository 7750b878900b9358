// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySettled is returned when marking a record that is already settled.
	ErrAlreadySettled = errors.New("settlement already settled")
)

// GroupStore persists groups and their memberships.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListGroupsByMember(ctx context.Context, userID models.UserID) ([]*models.Group, error)
	AddGroupMembers(ctx context.Context, groupID string, members []models.UserID) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// CreateExpense persists a new expense. ID and timestamps are filled in by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	// UpdateExpense replaces amount, split and payers of an existing expense.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	// ListExpensesByGroup returns every expense of the group, oldest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)
}

// SettlementStore persists settlement records.
type SettlementStore interface {
	// ReplaceUnsettled deletes every unsettled record of the group and inserts
	// records in their place, as one unit. Settled records are left untouched.
	ReplaceUnsettled(ctx context.Context, groupID string, records []*models.SettlementRecord) error

	// FindSettlementsByUserAndGroup returns every record of the group, settled
	// or not, where the user is debtor or creditor, newest first.
	FindSettlementsByUserAndGroup(ctx context.Context, groupID string, userID models.UserID) ([]*models.SettlementRecord, error)

	// ListSettlementsByGroup returns the group's records, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.SettlementRecord, error)

	GetSettlement(ctx context.Context, settlementID string) (*models.SettlementRecord, error)

	// MarkSettled flips one unsettled record to settled and returns it.
	// Returns ErrNotFound or ErrAlreadySettled.
	MarkSettled(ctx context.Context, settlementID string) (*models.SettlementRecord, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id models.UserID) (*models.User, error)
}

// Store defines every storage operation the services need.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	GroupStore
	ExpenseStore
	SettlementStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
