package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/social"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The caller always becomes a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name required"))
	}

	group := &models.Group{
		Name:    req.Msg.Name,
		Members: uniqueMembers(append([]models.UserID{userID}, fromAPIUserIDs(req.Msg.Members)...)),
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves all groups, or only those of the requested member.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	memberID := fromAPIUserID(req.Msg.MemberID)
	slog.Info("ListGroups request received", "member_id", memberID)

	var (
		groups []*models.Group
		err    error
	)
	if memberID != "" {
		groups, err = s.store.ListGroupsByMember(ctx, memberID)
	} else {
		groups, err = s.store.ListGroups(ctx)
	}
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMembers adds users to a group. Existing members are ignored.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("AddMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.Members),
	)

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	var newMembers []models.UserID
	for _, id := range uniqueMembers(fromAPIUserIDs(req.Msg.Members)) {
		if !group.HasMember(id) {
			newMembers = append(newMembers, id)
		}
	}

	if len(newMembers) > 0 {
		if err := s.store.AddGroupMembers(ctx, group.ID, newMembers); err != nil {
			slog.Error("AddMembers failed", "group_id", group.ID, "error", err)
			return nil, storageError(err)
		}
		group.Members = append(group.Members, newMembers...)
		slog.Info("Members added", "group_id", group.ID, "new_members", newMembers)
	}

	return connect.NewResponse(&api.AddMembersResponse{Group: toAPIGroup(group)}), nil
}

// DegreeOfConnection reports how many shared-group hops separate two users.
func (s *GroupService) DegreeOfConnection(ctx context.Context, req *connect.Request[api.DegreeOfConnectionRequest]) (*connect.Response[api.DegreeOfConnectionResponse], error) {
	a, b := fromAPIUserID(req.Msg.UserA), fromAPIUserID(req.Msg.UserB)
	if a == "" || b == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user_a and user_b required"))
	}

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("DegreeOfConnection failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	degree := social.DegreeOfConnection(groups, a, b)
	slog.Info("DegreeOfConnection computed", "user_a", a, "user_b", b, "degree", degree)

	return connect.NewResponse(&api.DegreeOfConnectionResponse{Degree: degree}), nil
}

// uniqueMembers drops empty and repeated ids, keeping first occurrences.
func uniqueMembers(ids []models.UserID) []models.UserID {
	seen := make(map[models.UserID]bool, len(ids))
	out := make([]models.UserID, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
