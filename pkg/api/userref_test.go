package api

import (
	"encoding/json"
	"testing"
)

func TestUserRefUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want UserRef
	}{
		{"plain string", `"alice"`, "alice"},
		{"string kept verbatim", `"Alice <64b7f0c2a1b2c3d4e5f60718>"`, "Alice <64b7f0c2a1b2c3d4e5f60718>"},
		{"object with _id", `{"_id":"64b7f0c2a1b2c3d4e5f60718","name":"Alice"}`, "64b7f0c2a1b2c3d4e5f60718"},
		{"object with id", `{"id":"bob"}`, "bob"},
		{"nested object", `{"_id":{"id":"dave"}}`, "dave"},
		{"large number keeps its digits", `123456789012345678901234`, "123456789012345678901234"},
		{"numeric id inside object", `{"id":42}`, "42"},
		{"object without id", `{"name":"alice"}`, ""},
		{"boolean", `true`, ""},
		{"array", `["alice"]`, ""},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got UserRef
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("inside a message", func(t *testing.T) {
		var req CreateGroupRequest
		body := `{"name":"Trip","members":["alice",{"_id":"64b7f0c2a1b2c3d4e5f60718"}]}`
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(req.Members) != 2 || req.Members[0] != "alice" || req.Members[1] != "64b7f0c2a1b2c3d4e5f60718" {
			t.Errorf("unexpected members %v", req.Members)
		}
	})

	t.Run("marshals as a plain string", func(t *testing.T) {
		out, err := json.Marshal(Balance{UserID: "alice", Amount: -10})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(out) != `{"user_id":"alice","amount":-10}` {
			t.Errorf("unexpected JSON %s", out)
		}
	})
}
