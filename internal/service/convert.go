package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// requireUser returns the authenticated caller or an Unauthenticated error.
func requireUser(ctx context.Context) (models.UserID, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return userID, nil
}

// storageError maps a storage failure to a Connect error.
func storageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// loadMemberGroup fetches a group and checks that userID belongs to it.
func loadMemberGroup(ctx context.Context, store storage.GroupStore, groupID string, userID models.UserID) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storageError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of group %s", groupID))
	}
	return group, nil
}

// fromAPIUserID normalizes a wire reference into a user id.
func fromAPIUserID(r api.UserRef) models.UserID {
	return models.NormalizeUserID(string(r))
}

func fromAPIUserIDs(refs []api.UserRef) []models.UserID {
	ids := make([]models.UserID, len(refs))
	for i, r := range refs {
		ids[i] = fromAPIUserID(r)
	}
	return ids
}

func toAPIRefs(ids []models.UserID) []api.UserRef {
	refs := make([]api.UserRef, len(ids))
	for i, id := range ids {
		refs[i] = api.UserRef(id)
	}
	return refs
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          api.UserRef(u.ID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   toAPIRefs(g.Members),
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	payers := make([]*api.Contribution, len(e.Payers))
	for i, p := range e.Payers {
		payers[i] = &api.Contribution{UserID: api.UserRef(p.UserID), Amount: p.Amount}
	}
	splits := make([]*api.Share, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.Share{UserID: api.UserRef(s.UserID), Amount: s.Amount, Percentage: s.Percentage}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		SplitType:   string(e.SplitType),
		Payers:      payers,
		Splits:      splits,
		CreatedBy:   api.UserRef(e.CreatedBy),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toAPISettlement(r *models.SettlementRecord) *api.Settlement {
	return &api.Settlement{
		ID:          r.ID,
		GroupID:     r.GroupID,
		DebtorID:    api.UserRef(r.DebtorID),
		CreditorID:  api.UserRef(r.CreditorID),
		AmountToPay: r.AmountToPay,
		Settled:     r.Settled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toAPITransactions(txs []calculator.Transaction) []*api.Transaction {
	out := make([]*api.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = &api.Transaction{From: api.UserRef(tx.From), To: api.UserRef(tx.To), Amount: tx.Amount}
	}
	return out
}

func fromAPIContributions(in []*api.Contribution) []models.Contribution {
	out := make([]models.Contribution, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, models.Contribution{UserID: fromAPIUserID(c.UserID), Amount: c.Amount})
	}
	return out
}

func fromAPIShares(in []*api.Share) []models.Share {
	out := make([]models.Share, 0, len(in))
	for _, s := range in {
		if s == nil {
			continue
		}
		out = append(out, models.Share{UserID: fromAPIUserID(s.UserID), Amount: s.Amount, Percentage: s.Percentage})
	}
	return out
}

// fromAPIBalances converts client balances, rejecting missing or repeated
// user ids with InvalidArgument.
func fromAPIBalances(in []*api.Balance) ([]calculator.Entry, error) {
	out := make([]calculator.Entry, 0, len(in))
	seen := make(map[models.UserID]bool, len(in))
	for i, b := range in {
		if b == nil {
			continue
		}
		id := fromAPIUserID(b.UserID)
		if id == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("balances[%d]: user_id required", i))
		}
		if seen[id] {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("balances[%d]: user %s listed twice", i, id))
		}
		seen[id] = true
		out = append(out, calculator.Entry{UserID: id, Amount: b.Amount})
	}
	return out, nil
}
