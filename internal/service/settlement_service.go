package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	store  storage.Store
	engine *settlement.Engine
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, engine *settlement.Engine) *SettlementService {
	return &SettlementService{store: store, engine: engine}
}

// ComputeSettlements recomputes and stores a group's settlements.
//
// When the request carries balances they are matched instead and nothing is
// stored. Such a preview needs no group; if group_id is set the caller must
// belong to the group and so must every user in the balances.
func (s *SettlementService) ComputeSettlements(ctx context.Context, req *connect.Request[api.ComputeSettlementsRequest]) (*connect.Response[api.ComputeSettlementsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if len(req.Msg.Balances) > 0 {
		entries, err := fromAPIBalances(req.Msg.Balances)
		if err != nil {
			return nil, err
		}
		if req.Msg.GroupID != "" {
			group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !group.HasMember(e.UserID) {
					return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user %s is not a member of group %s", e.UserID, group.ID))
				}
			}
		}

		slog.Info("ComputeSettlements preview", "group_id", req.Msg.GroupID, "balances_count", len(entries))
		txs := s.engine.Preview(entries)
		return connect.NewResponse(&api.ComputeSettlementsResponse{
			Transactions: toAPITransactions(txs),
		}), nil
	}

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("ComputeSettlements request received", "group_id", group.ID)

	txs, err := s.engine.Recalculate(ctx, group.ID)
	if err != nil {
		slog.Error("ComputeSettlements failed", "group_id", group.ID, "error", err)
		if errors.Is(err, settlement.ErrComputation) || errors.Is(err, settlement.ErrRetryable) {
			return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to compute settlements, try again: %w", err))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.ComputeSettlementsResponse{
		Transactions: toAPITransactions(txs),
		Persisted:    true,
	}), nil
}

// ListSettlements returns a group's settlement records, newest first. When a
// user is given only records where they are debtor or creditor are returned.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	filter := fromAPIUserID(req.Msg.UserID)
	slog.Info("ListSettlements request received", "group_id", group.ID, "user_id", filter)

	var records []*models.SettlementRecord
	if filter != "" {
		records, err = s.store.FindSettlementsByUserAndGroup(ctx, group.ID, filter)
	} else {
		records, err = s.store.ListSettlementsByGroup(ctx, group.ID, false)
	}
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Settlement, len(records))
	for i, r := range records {
		out[i] = toAPISettlement(r)
	}

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// MarkSettled records that a debtor has paid a settlement.
func (s *SettlementService) MarkSettled(ctx context.Context, req *connect.Request[api.MarkSettledRequest]) (*connect.Response[api.MarkSettledResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.SettlementID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("settlement_id required"))
	}

	slog.Info("MarkSettled request received", "settlement_id", req.Msg.SettlementID)

	record, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		slog.Warn("MarkSettled: failed to get settlement", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, storageError(err)
	}
	if _, err := loadMemberGroup(ctx, s.store, record.GroupID, userID); err != nil {
		return nil, err
	}

	updated, err := s.store.MarkSettled(ctx, record.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadySettled):
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	case err != nil:
		slog.Error("MarkSettled failed", "settlement_id", record.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Settlement marked settled",
		"settlement_id", updated.ID,
		"group_id", updated.GroupID,
		"debtor_id", updated.DebtorID,
		"creditor_id", updated.CreditorID,
	)

	return connect.NewResponse(&api.MarkSettledResponse{Settlement: toAPISettlement(updated)}), nil
}
