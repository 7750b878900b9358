package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseService implements the Connect ExpenseService.
// Every successful mutation is published on the bus so that the group's
// settlements are recomputed.
type ExpenseService struct {
	store storage.Store
	bus   *settlement.Bus
}

// NewExpenseService creates a new ExpenseService. bus may be nil, in which
// case no events are published.
func NewExpenseService(store storage.Store, bus *settlement.Bus) *ExpenseService {
	return &ExpenseService{store: store, bus: bus}
}

// expenseInput is the editable part of an expense as received on the wire.
type expenseInput struct {
	description string
	amount      float64
	splitType   string
	payers      []*api.Contribution
	splits      []*api.Share
}

// apply validates in against group and writes it into expense.
func (in expenseInput) apply(expense *models.Expense, group *models.Group) error {
	splitType := models.SplitType(in.splitType)
	if splitType == "" {
		splitType = models.SplitEqual
	}
	if !splitType.Valid() {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown split_type %q", in.splitType))
	}

	shares, err := calculator.BuildShares(splitType, in.amount, fromAPIShares(in.splits))
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	payers := fromAPIContributions(in.payers)
	if err := calculator.ValidatePayers(in.amount, payers); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense.Description = in.description
	expense.Amount = in.amount
	expense.SplitType = splitType
	expense.Payers = payers
	expense.Splits = shares

	for _, id := range expense.Participants() {
		if !group.HasMember(id) {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user %s is not a member of group %s", id, group.ID))
		}
	}
	return nil
}

// publish notifies subscribers about a persisted mutation. A failed
// recalculation is logged and does not fail the mutation.
func (s *ExpenseService) publish(ctx context.Context, kind settlement.EventKind, expense *models.Expense) {
	if s.bus == nil {
		return
	}
	ev := settlement.Event{Kind: kind, GroupID: expense.GroupID, ExpenseID: expense.ID}
	if err := s.bus.Publish(ctx, ev); err != nil {
		slog.Error("Settlement recalculation failed after expense change",
			"event", kind,
			"group_id", expense.GroupID,
			"expense_id", expense.ID,
			"error", err,
		)
	}
}

// CreateExpense validates and stores a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
		"payers_count", len(req.Msg.Payers),
		"splits_count", len(req.Msg.Splits),
	)

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{GroupID: group.ID, CreatedBy: userID}
	in := expenseInput{
		description: req.Msg.Description,
		amount:      req.Msg.Amount,
		splitType:   req.Msg.SplitType,
		payers:      req.Msg.Payers,
		splits:      req.Msg.Splits,
	}
	if err := in.apply(expense, group); err != nil {
		slog.Warn("CreateExpense validation failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	s.publish(ctx, settlement.ExpenseCreated, expense)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense replaces the amount, split and payers of an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ExpenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("expense_id required"))
	}

	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID, "amount", req.Msg.Amount)

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("UpdateExpense: failed to get existing expense", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storageError(err)
	}
	group, err := loadMemberGroup(ctx, s.store, expense.GroupID, userID)
	if err != nil {
		return nil, err
	}

	in := expenseInput{
		description: req.Msg.Description,
		amount:      req.Msg.Amount,
		splitType:   req.Msg.SplitType,
		payers:      req.Msg.Payers,
		splits:      req.Msg.Splits,
	}
	if err := in.apply(expense, group); err != nil {
		slog.Warn("UpdateExpense validation failed", "expense_id", expense.ID, "error", err)
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expense.ID, "error", err)
		return nil, storageError(err)
	}
	slog.Info("Expense updated", "expense_id", expense.ID, "group_id", expense.GroupID)

	s.publish(ctx, settlement.ExpenseUpdated, expense)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ExpenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("expense_id required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("DeleteExpense: failed to get existing expense", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storageError(err)
	}
	if _, err := loadMemberGroup(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, storageError(err)
	}
	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID)

	s.publish(ctx, settlement.ExpenseDeleted, expense)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storageError(err)
	}
	if _, err := loadMemberGroup(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses retrieves every expense of a group, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}
