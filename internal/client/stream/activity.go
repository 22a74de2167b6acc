package stream

import (
	"encoding/json"
	"fmt"
)

// Activity is a single feed entry. Custom fields live in Extra and are
// flattened into the JSON object on the wire.
type Activity struct {
	ID     string
	Actor  string
	Verb   string
	Object string
	// Time is assigned by the platform when the activity is stored.
	Time  string
	Extra map[string]any
}

var reservedFields = map[string]struct{}{
	"id": {}, "actor": {}, "verb": {}, "object": {}, "time": {},
}

// MarshalJSON flattens Extra next to the standard fields.
func (a Activity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+5)
	for k, v := range a.Extra {
		if _, reserved := reservedFields[k]; reserved {
			return nil, fmt.Errorf("extra field %q collides with a reserved field", k)
		}
		out[k] = v
	}
	out["actor"] = a.Actor
	out["verb"] = a.Verb
	out["object"] = a.Object
	if a.ID != "" {
		out["id"] = a.ID
	}
	if a.Time != "" {
		out["time"] = a.Time
	}
	return json.Marshal(out)
}

// UnmarshalJSON collects every non-standard field into Extra.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Activity{}
	fields := map[string]*string{
		"id": &a.ID, "actor": &a.Actor, "verb": &a.Verb, "object": &a.Object, "time": &a.Time,
	}
	for k, v := range raw {
		if dst, ok := fields[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("activity field %q: %w", k, err)
			}
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("activity field %q: %w", k, err)
		}
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		a.Extra[k] = val
	}
	return nil
}

// Message returns the "message" extra field, or "" when absent.
func (a Activity) Message() string {
	msg, _ := a.Extra["message"].(string)
	return msg
}
