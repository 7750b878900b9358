package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// UserID is the canonical identifier of a user.
type UserID string

// String implements fmt.Stringer.
func (id UserID) String() string { return string(id) }

// Identifier is implemented by values that carry a user identifier,
// such as decoded user documents.
type Identifier interface {
	UserIdentifier() string
}

// objectIDPattern matches a 24 character hexadecimal document identifier.
var objectIDPattern = regexp.MustCompile(`[0-9a-fA-F]{24}`)

// NormalizeUserID resolves a user reference to its canonical UserID.
//
// Objects carrying an identifier yield that identifier. Strings that embed a
// 24 character hex run (for example "Alice <65f0c0ffee...>") yield the run.
// Any other string is returned unchanged. Integers are formatted in decimal.
// Nil, objects without an identifier and values of any other kind yield the
// empty UserID. It never fails, so callers must validate the result.
func NormalizeUserID(ref any) UserID {
	switch v := ref.(type) {
	case nil:
		return ""
	case UserID:
		return normalizeString(string(v))
	case string:
		return normalizeString(v)
	case Identifier:
		return normalizeString(v.UserIdentifier())
	case map[string]any:
		if id, ok := v["_id"]; ok && id != nil {
			return NormalizeUserID(id)
		}
		if id, ok := v["id"]; ok && id != nil {
			return NormalizeUserID(id)
		}
		return ""
	case fmt.Stringer:
		return normalizeString(v.String())
	case int:
		return UserID(strconv.Itoa(v))
	case int64:
		return UserID(strconv.FormatInt(v, 10))
	case uint64:
		return UserID(strconv.FormatUint(v, 10))
	case float64:
		return UserID(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return ""
	}
}

func normalizeString(s string) UserID {
	if m := objectIDPattern.FindString(s); m != "" {
		return UserID(m)
	}
	return UserID(s)
}

// NormalizeUserIDs normalizes every reference in refs.
func NormalizeUserIDs[T any](refs []T) []UserID {
	ids := make([]UserID, len(refs))
	for i, r := range refs {
		ids[i] = NormalizeUserID(r)
	}
	return ids
}
