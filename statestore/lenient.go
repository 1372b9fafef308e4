// ABOUTME: Tolerant field decoding for hand-edited or older state files.
// ABOUTME: Wrong-typed JSON fields degrade to absent instead of failing.

package statestore

import "encoding/json"

// StringField decodes raw as a JSON string. Absent fields and fields holding
// any other JSON type decode as the empty string: reads degrade field by
// field, they never fail a whole document over one bad value.
func StringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ObjectField decodes raw as a JSON object keyed by string. Absent fields
// and fields holding any other JSON type decode as nil.
func ObjectField(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
