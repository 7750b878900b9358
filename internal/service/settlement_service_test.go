package service

import (
	"context"
	"math"
	"testing"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func listSettlements(t *testing.T, c *testClients, groupID string, userID api.UserRef) []*api.Settlement {
	t.Helper()
	resp, err := c.settlements.ListSettlements(context.Background(), connect.NewRequest(&api.ListSettlementsRequest{
		GroupID: groupID,
		UserID:  userID,
	}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	return resp.Msg.Settlements
}

func unsettled(records []*api.Settlement) []*api.Settlement {
	var out []*api.Settlement
	for _, r := range records {
		if !r.Settled {
			out = append(out, r)
		}
	}
	return out
}

func TestExpenseChangesRecalculateSettlements(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "user2", "user3")

	created, err := c.expenses.CreateExpense(ctx, connect.NewRequest(
		equalExpense(group.ID, 300, "alice", "alice", "user2", "user3"),
	))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	records := unsettled(listSettlements(t, c, group.ID, ""))
	if len(records) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(records))
	}
	for _, r := range records {
		if r.CreditorID != "alice" || math.Abs(r.AmountToPay-100) > 0.01 {
			t.Errorf("unexpected settlement %+v", r)
		}
	}

	// With a custom split only user2 still owes alice.
	if _, err := c.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: created.Msg.Expense.ID,
		Amount:    300,
		SplitType: "custom",
		Payers:    []*api.Contribution{{UserID: "alice", Amount: 300}},
		Splits:    []*api.Share{{UserID: "alice", Amount: 150}, {UserID: "user2", Amount: 150}},
	})); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}

	records = unsettled(listSettlements(t, c, group.ID, ""))
	if len(records) != 1 {
		t.Fatalf("expected 1 settlement after update, got %d", len(records))
	}
	if records[0].DebtorID != "user2" || math.Abs(records[0].AmountToPay-150) > 0.01 {
		t.Errorf("unexpected settlement %+v", records[0])
	}

	if _, err := c.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: created.Msg.Expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if records := unsettled(listSettlements(t, c, group.ID, "")); len(records) != 0 {
		t.Errorf("expected no settlements after delete, got %d", len(records))
	}
}

func TestComputeSettlements(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "bob", "carol")

	for _, req := range []*api.CreateExpenseRequest{
		equalExpense(group.ID, 90, "alice", "alice", "bob", "carol"),
		equalExpense(group.ID, 60, "bob", "bob", "carol"),
	} {
		if _, err := c.expenses.CreateExpense(ctx, connect.NewRequest(req)); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	// Re-running is idempotent.
	for i := 0; i < 2; i++ {
		resp, err := c.settlements.ComputeSettlements(ctx, connect.NewRequest(&api.ComputeSettlementsRequest{GroupID: group.ID}))
		if err != nil {
			t.Fatalf("ComputeSettlements failed: %v", err)
		}
		if !resp.Msg.Persisted {
			t.Error("expected persisted result")
		}
		if len(resp.Msg.Transactions) != 1 {
			t.Fatalf("expected 1 transaction, got %+v", resp.Msg.Transactions)
		}
		tx := resp.Msg.Transactions[0]
		if tx.From != "carol" || tx.To != "alice" || math.Abs(tx.Amount-60) > 0.01 {
			t.Errorf("unexpected transaction %+v", tx)
		}
	}

	if records := unsettled(listSettlements(t, c, group.ID, "")); len(records) != 1 {
		t.Errorf("expected 1 stored settlement, got %d", len(records))
	}

	t.Run("non-member", func(t *testing.T) {
		_, err := c.settlements.ComputeSettlements(ctx, as("mallory", connect.NewRequest(&api.ComputeSettlementsRequest{GroupID: group.ID})))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("group required", func(t *testing.T) {
		_, err := c.settlements.ComputeSettlements(ctx, connect.NewRequest(&api.ComputeSettlementsRequest{}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestComputeSettlements_Preview(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "bob")

	tests := []struct {
		name      string
		groupID   string
		user      string
		balances  []*api.Balance
		wantCount int
		wantTotal float64
		absent    api.UserRef
		wantCode  connect.Code
	}{
		{
			name:      "single pair",
			balances:  []*api.Balance{{UserID: "A", Amount: -100}, {UserID: "B", Amount: 100}},
			wantCount: 1,
			wantTotal: 100,
		},
		{
			name: "two debtors two creditors",
			balances: []*api.Balance{
				{UserID: "A", Amount: -150}, {UserID: "B", Amount: -50},
				{UserID: "C", Amount: 100}, {UserID: "D", Amount: 100},
			},
			wantCount: 3,
			wantTotal: 200,
		},
		{
			name:      "settled member ignored",
			balances:  []*api.Balance{{UserID: "A", Amount: -100}, {UserID: "B", Amount: 100}, {UserID: "C", Amount: 0}},
			wantCount: 1,
			wantTotal: 100,
			absent:    "C",
		},
		{
			name:      "embedded object id normalized",
			balances:  []*api.Balance{{UserID: "Alice <64b7f0c2a1b2c3d4e5f60718>", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCount: 1,
			wantTotal: 40,
			absent:    "Alice <64b7f0c2a1b2c3d4e5f60718>",
		},
		{
			name:     "missing user id",
			balances: []*api.Balance{{UserID: "", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "repeated user id",
			balances: []*api.Balance{{UserID: "bob", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:      "group members only",
			groupID:   group.ID,
			balances:  []*api.Balance{{UserID: "alice", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCount: 1,
			wantTotal: 40,
		},
		{
			name:     "balance for a non-member of the group",
			groupID:  group.ID,
			balances: []*api.Balance{{UserID: "alice", Amount: -40}, {UserID: "mallory", Amount: 40}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "caller outside the group",
			groupID:  group.ID,
			user:     "mallory",
			balances: []*api.Balance{{UserID: "alice", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCode: connect.CodePermissionDenied,
		},
		{
			name:     "unknown group",
			groupID:  "no-such-group",
			balances: []*api.Balance{{UserID: "alice", Amount: -40}, {UserID: "bob", Amount: 40}},
			wantCode: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.ComputeSettlementsRequest{
				GroupID:  tt.groupID,
				Balances: tt.balances,
			})
			if tt.user != "" {
				req = as(tt.user, req)
			}
			resp, err := c.settlements.ComputeSettlements(ctx, req)
			if tt.wantCode != 0 {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("ComputeSettlements failed: %v", err)
			}
			if resp.Msg.Persisted {
				t.Error("preview must not be persisted")
			}
			if len(resp.Msg.Transactions) > tt.wantCount {
				t.Errorf("expected at most %d transactions, got %d", tt.wantCount, len(resp.Msg.Transactions))
			}
			var total float64
			for _, tx := range resp.Msg.Transactions {
				if tx.From == "" || tx.To == "" {
					t.Errorf("transaction with empty party %+v", tx)
				}
				if tt.absent != "" && (tx.From == tt.absent || tx.To == tt.absent) {
					t.Errorf("unexpected party %q in %+v", tt.absent, tx)
				}
				total += tx.Amount
			}
			if math.Abs(total-tt.wantTotal) > 0.01 {
				t.Errorf("expected total %.2f, got %.2f", tt.wantTotal, total)
			}
		})
	}

	if records := listSettlements(t, c, group.ID, ""); len(records) != 0 {
		t.Errorf("preview with group_id stored %d records", len(records))
	}
}

func TestListSettlements_ByUser(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "bob", "carol")

	for _, req := range []*api.CreateExpenseRequest{
		equalExpense(group.ID, 30, "alice", "alice", "bob"),
		equalExpense(group.ID, 40, "carol", "carol", "bob"),
	} {
		if _, err := c.expenses.CreateExpense(ctx, connect.NewRequest(req)); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	// alice +15, bob -35, carol +20
	tests := []struct {
		user api.UserRef
		want int
	}{
		{"bob", 2},
		{"alice", 1},
		{"carol", 1},
		{"dave", 0},
	}
	for _, tt := range tests {
		records := listSettlements(t, c, group.ID, tt.user)
		if len(records) != tt.want {
			t.Errorf("%s: expected %d records, got %d", tt.user, tt.want, len(records))
		}
		for _, r := range records {
			if r.DebtorID != tt.user && r.CreditorID != tt.user {
				t.Errorf("%s: record does not involve user: %+v", tt.user, r)
			}
		}
	}
}

func TestMarkSettled(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "user2", "user3")

	if _, err := c.expenses.CreateExpense(ctx, connect.NewRequest(
		equalExpense(group.ID, 300, "alice", "alice", "user2", "user3"),
	)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	records := listSettlements(t, c, group.ID, "")
	if len(records) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(records))
	}
	target := records[0]

	resp, err := c.settlements.MarkSettled(ctx, connect.NewRequest(&api.MarkSettledRequest{SettlementID: target.ID}))
	if err != nil {
		t.Fatalf("MarkSettled failed: %v", err)
	}
	if !resp.Msg.Settlement.Settled || resp.Msg.Settlement.ID != target.ID {
		t.Errorf("unexpected settlement %+v", resp.Msg.Settlement)
	}

	t.Run("already settled", func(t *testing.T) {
		_, err := c.settlements.MarkSettled(ctx, connect.NewRequest(&api.MarkSettledRequest{SettlementID: target.ID}))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("nonexistent id leaves others alone", func(t *testing.T) {
		_, err := c.settlements.MarkSettled(ctx, connect.NewRequest(&api.MarkSettledRequest{SettlementID: "nonexistent-id"}))
		assertCode(t, err, connect.CodeNotFound)

		after := listSettlements(t, c, group.ID, "")
		if len(after) != 2 {
			t.Fatalf("expected 2 records, got %d", len(after))
		}
		settledCount := 0
		for _, r := range after {
			if r.Settled {
				settledCount++
				if r.ID != target.ID {
					t.Errorf("unexpected settled record %s", r.ID)
				}
			}
		}
		if settledCount != 1 {
			t.Errorf("expected exactly 1 settled record, got %d", settledCount)
		}
	})

	t.Run("non-member", func(t *testing.T) {
		_, err := c.settlements.MarkSettled(ctx, as("mallory", connect.NewRequest(&api.MarkSettledRequest{SettlementID: records[1].ID})))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("settled records survive recalculation", func(t *testing.T) {
		if _, err := c.settlements.ComputeSettlements(ctx, connect.NewRequest(&api.ComputeSettlementsRequest{GroupID: group.ID})); err != nil {
			t.Fatalf("ComputeSettlements failed: %v", err)
		}
		stored, err := c.store.GetSettlement(ctx, target.ID)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if !stored.Settled {
			t.Error("settled record was replaced")
		}
	})
}

func TestComputeSettlements_InconsistentData(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "bob")

	// Written straight to storage: payments do not match the amount.
	bad := &models.Expense{
		GroupID:   group.ID,
		Amount:    100,
		SplitType: models.SplitEqual,
		Payers:    []models.Contribution{{UserID: "alice", Amount: 10}},
		Splits:    []models.Share{{UserID: "alice"}, {UserID: "bob"}},
		CreatedBy: "alice",
	}
	if err := c.store.CreateExpense(ctx, bad); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	_, err := c.settlements.ComputeSettlements(ctx, connect.NewRequest(&api.ComputeSettlementsRequest{GroupID: group.ID}))
	assertCode(t, err, connect.CodeUnavailable)
}
