package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// newTestStore connects to TEST_DATABASE_URL; tests skip when it is unset.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "pg", Members: []models.UserID{"a", "b", "c"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	expense := &models.Expense{
		GroupID: group.ID, Amount: 90, SplitType: models.SplitEqual,
		Payers: []models.Contribution{{UserID: "a", Amount: 90}},
		Splits: []models.Share{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	expenses, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil || len(expenses) != 1 || len(expenses[0].Splits) != 3 {
		t.Fatalf("ListExpensesByGroup = %+v, %v", expenses, err)
	}

	records := []*models.SettlementRecord{
		{DebtorID: "b", CreditorID: "a", AmountToPay: 30},
		{DebtorID: "c", CreditorID: "a", AmountToPay: 30},
	}
	for i := 0; i < 2; i++ {
		if err := store.ReplaceUnsettled(ctx, group.ID, records); err != nil {
			t.Fatalf("ReplaceUnsettled failed: %v", err)
		}
		for _, r := range records {
			r.ID = ""
		}
	}

	open, err := store.ListSettlementsByGroup(ctx, group.ID, true)
	if err != nil || len(open) != 2 {
		t.Fatalf("expected 2 open records, got %d (%v)", len(open), err)
	}

	settled, err := store.MarkSettled(ctx, open[0].ID)
	if err != nil || !settled.Settled {
		t.Fatalf("MarkSettled = %+v, %v", settled, err)
	}
	if _, err := store.MarkSettled(ctx, open[0].ID); !errors.Is(err, storage.ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
	if _, err := store.MarkSettled(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
