package models

import "testing"

type userDoc struct{ id string }

func (d userDoc) UserIdentifier() string { return d.id }

func TestNormalizeUserID(t *testing.T) {
	const oid = "65f0a1b2c3d4e5f60718293a"

	tests := []struct {
		name string
		ref  any
		want UserID
	}{
		{name: "nil", ref: nil, want: ""},
		{name: "plain string passes through", ref: "alice", want: "alice"},
		{name: "uuid passes through", ref: "550e8400-e29b-41d4-a716-446655440000", want: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "bare object id", ref: oid, want: oid},
		{name: "label wrapping object id", ref: "Alice <" + oid + ">", want: oid},
		{name: "typed id", ref: UserID("bob"), want: "bob"},
		{name: "identifier object", ref: userDoc{id: oid}, want: oid},
		{name: "document with _id", ref: map[string]any{"_id": oid, "name": "Alice"}, want: oid},
		{name: "document with id", ref: map[string]any{"id": "carol"}, want: "carol"},
		{name: "nested document", ref: map[string]any{"_id": map[string]any{"id": "dave"}}, want: "dave"},
		{name: "document without id", ref: map[string]any{"name": "alice"}, want: ""},
		{name: "integer", ref: 42, want: "42"},
		{name: "large float keeps digits", ref: float64(1e23), want: "100000000000000000000000"},
		{name: "unsupported kind", ref: []string{"alice"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUserID(tt.ref); got != tt.want {
				t.Errorf("NormalizeUserID(%v) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestNormalizeUserIDs(t *testing.T) {
	got := NormalizeUserIDs([]string{"a", "x 65f0a1b2c3d4e5f60718293a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "65f0a1b2c3d4e5f60718293a" {
		t.Errorf("NormalizeUserIDs = %v", got)
	}
}

func TestExpenseParticipants(t *testing.T) {
	e := Expense{
		Payers: []Contribution{{UserID: "a", Amount: 10}},
		Splits: []Share{{UserID: "a"}, {UserID: "b"}},
	}
	got := e.Participants()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Participants() = %v, want [a b]", got)
	}
	if e.HasExplicitShares() {
		t.Error("equal split should not report explicit shares")
	}
}
