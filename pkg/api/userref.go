package api

import (
	"bytes"
	"encoding/json"
)

// UserRef is a user identifier as it arrives on the wire. Clients may send a
// string, a number, or an object with an "_id" or "id" field. Objects without
// either field and values of any other kind decode to the empty reference.
//
// UserRef only unwraps the wire shape. Servers still normalize the result
// before treating it as a user id.
type UserRef string

// UnmarshalJSON accepts any of the reference forms above.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*r = UserRef(refString(v))
	return nil
}

func refString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any:
		if id, ok := v["_id"]; ok && id != nil {
			return refString(id)
		}
		if id, ok := v["id"]; ok && id != nil {
			return refString(id)
		}
	}
	return ""
}
