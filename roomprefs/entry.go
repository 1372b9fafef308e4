// ABOUTME: Room preference entry and its tolerant JSON codec.
// ABOUTME: Decodes both the structured shape and the legacy bare-string shape.

package roomprefs

import (
	"encoding/json"

	"github.com/2389/coven-prefs/prefs"
	"github.com/2389/coven-prefs/statestore"
)

// Entry holds one room's stored preferences. The zero value means the room
// has nothing set and must not be stored.
type Entry struct {
	DefaultEngine string
	TriggerMode   prefs.TriggerMode
	Context       prefs.RunContext
	Overrides     map[string]prefs.EngineOverrides
}

// IsZero reports whether every field is at its default. Zero entries are
// pruned from the document after the mutation that emptied them.
func (e *Entry) IsZero() bool {
	return e.DefaultEngine == "" &&
		e.TriggerMode == "" &&
		e.Context.IsZero() &&
		len(e.Overrides) == 0
}

// override returns the stored overrides for an already-normalized engine id.
func (e *Entry) override(engine string) prefs.EngineOverrides {
	return e.Overrides[engine]
}

// setOverride stores or deletes the overrides for an already-normalized
// engine id. Zero overrides are deleted, never stored empty.
func (e *Entry) setOverride(engine string, o prefs.EngineOverrides) {
	if o.IsZero() {
		delete(e.Overrides, engine)
		return
	}
	if e.Overrides == nil {
		e.Overrides = make(map[string]prefs.EngineOverrides)
	}
	e.Overrides[engine] = o
}

// entryJSON is the structured on-disk shape of an Entry.
type entryJSON struct {
	DefaultEngine string                           `json:"default_engine,omitempty"`
	TriggerMode   prefs.TriggerMode                `json:"trigger_mode,omitempty"`
	BoundContext  *prefs.RunContext                `json:"bound_context,omitempty"`
	Overrides     map[string]prefs.EngineOverrides `json:"overrides,omitempty"`
}

// MarshalJSON writes the structured shape. Absent fields are omitted, so a
// freshly-pruned entry never serializes residue.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		DefaultEngine: e.DefaultEngine,
		TriggerMode:   e.TriggerMode,
		Overrides:     e.Overrides,
	}
	if !e.Context.IsZero() {
		ctx := e.Context
		out.BoundContext = &ctx
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either shape of a stored room value: the legacy bare
// engine-id string, or the structured object. Wrong-typed fields inside the
// object decode as absent rather than failing the document.
func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = Entry{}

	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		e.DefaultEngine = prefs.NormalizeEngineID(legacy)
		return nil
	}

	raw := statestore.ObjectField(data)
	if raw == nil {
		// Not a string and not an object: treat the whole entry as absent.
		return nil
	}

	e.DefaultEngine = prefs.NormalizeEngineID(statestore.StringField(raw["default_engine"]))
	e.TriggerMode = prefs.NormalizeTriggerMode(statestore.StringField(raw["trigger_mode"]))

	if ctx := statestore.ObjectField(raw["bound_context"]); ctx != nil {
		e.Context = prefs.NormalizeContext(prefs.RunContext{
			Project: statestore.StringField(ctx["project"]),
			Branch:  statestore.StringField(ctx["branch"]),
		})
	}

	e.Overrides = decodeOverrides(raw["overrides"])
	return nil
}

// decodeOverrides decodes an overrides map, normalizing engine ids and
// dropping entries that normalize to zero.
func decodeOverrides(raw json.RawMessage) map[string]prefs.EngineOverrides {
	obj := statestore.ObjectField(raw)
	if obj == nil {
		return nil
	}
	var out map[string]prefs.EngineOverrides
	for engine, value := range obj {
		key := prefs.NormalizeEngineID(engine)
		if key == "" {
			continue
		}
		fields := statestore.ObjectField(value)
		if fields == nil {
			continue
		}
		o := prefs.NormalizeOverrides(prefs.EngineOverrides{
			Model:     statestore.StringField(fields["model"]),
			Reasoning: statestore.StringField(fields["reasoning"]),
		})
		if o.IsZero() {
			continue
		}
		if out == nil {
			out = make(map[string]prefs.EngineOverrides)
		}
		out[key] = o
	}
	return out
}
