package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/pkg/api"
)

func createGroup(t *testing.T, c *testClients, name string, members ...api.UserRef) *api.Group {
	t.Helper()
	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:    name,
		Members: members,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func TestCreateGroup(t *testing.T) {
	c := setupTestServer(t)

	group := createGroup(t, c, "Roommates", "bob", "charlie", "bob")

	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	// The caller is added first and duplicates are dropped.
	want := []api.UserRef{"alice", "bob", "charlie"}
	if len(group.Members) != len(want) {
		t.Fatalf("members: expected %v, got %v", want, group.Members)
	}
	for i := range want {
		if group.Members[i] != want[i] {
			t.Errorf("members[%d]: expected %s, got %s", i, want[i], group.Members[i])
		}
	}
	if group.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestCreateGroup_NameRequired(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestGetGroup(t *testing.T) {
	c := setupTestServer(t)
	created := createGroup(t, c, "Work Lunch", "diana")

	resp, err := c.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{
		GroupID: created.ID,
	}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Work Lunch" {
		t.Errorf("name: expected 'Work Lunch', got '%s'", resp.Msg.Group.Name)
	}
	if len(resp.Msg.Group.Members) != 2 {
		t.Errorf("members: expected 2, got %d", len(resp.Msg.Group.Members))
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{
		GroupID: "nonexistent-id",
	}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestListGroups(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	createGroup(t, c, "Group A", "a1")
	createGroup(t, c, "Group B", "b1")
	if _, err := c.groups.CreateGroup(ctx, as("zoe", connect.NewRequest(&api.CreateGroupRequest{Name: "Group Z"}))); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	tests := []struct {
		name      string
		memberID  api.UserRef
		wantCount int
	}{
		{"all groups", "", 3},
		{"groups of alice", "alice", 2},
		{"groups of zoe", "zoe", 1},
		{"groups of stranger", "nobody", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{MemberID: tt.memberID}))
			if err != nil {
				t.Fatalf("ListGroups failed: %v", err)
			}
			if len(resp.Msg.Groups) != tt.wantCount {
				t.Errorf("expected %d groups, got %d", tt.wantCount, len(resp.Msg.Groups))
			}
		})
	}
}

func TestAddMembers(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, c, "Trip", "bob")

	resp, err := c.groups.AddMembers(ctx, connect.NewRequest(&api.AddMembersRequest{
		GroupID: group.ID,
		Members: []api.UserRef{"bob", "carol", "dave"},
	}))
	if err != nil {
		t.Fatalf("AddMembers failed: %v", err)
	}
	if len(resp.Msg.Group.Members) != 4 {
		t.Errorf("expected 4 members, got %v", resp.Msg.Group.Members)
	}

	got, err := c.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Msg.Group.Members) != 4 {
		t.Errorf("expected 4 stored members, got %v", got.Msg.Group.Members)
	}

	t.Run("non-member cannot add", func(t *testing.T) {
		_, err := c.groups.AddMembers(ctx, as("mallory", connect.NewRequest(&api.AddMembersRequest{
			GroupID: group.ID,
			Members: []api.UserRef{"mallory"},
		})))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := c.groups.AddMembers(ctx, connect.NewRequest(&api.AddMembersRequest{
			GroupID: "nonexistent-id",
			Members: []api.UserRef{"bob"},
		}))
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestDegreeOfConnection(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	createGroup(t, c, "Flat", "bob")
	if _, err := c.groups.CreateGroup(ctx, as("bob", connect.NewRequest(&api.CreateGroupRequest{
		Name:    "Climbing",
		Members: []api.UserRef{"carol"},
	}))); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	tests := []struct {
		a, b api.UserRef
		want int
	}{
		{"alice", "alice", 0},
		{"alice", "bob", 1},
		{"alice", "carol", 2},
		{"alice", "zoe", -1},
	}
	for _, tt := range tests {
		resp, err := c.groups.DegreeOfConnection(ctx, connect.NewRequest(&api.DegreeOfConnectionRequest{
			UserA: tt.a,
			UserB: tt.b,
		}))
		if err != nil {
			t.Fatalf("DegreeOfConnection failed: %v", err)
		}
		if resp.Msg.Degree != tt.want {
			t.Errorf("degree(%s, %s) = %d, want %d", tt.a, tt.b, resp.Msg.Degree, tt.want)
		}
	}

	_, err := c.groups.DegreeOfConnection(ctx, connect.NewRequest(&api.DegreeOfConnectionRequest{UserA: "alice"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}
