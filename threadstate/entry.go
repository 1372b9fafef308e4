// ABOUTME: Thread state entry and its tolerant JSON codec.
// ABOUTME: Same field surface as a room entry plus per-engine resume tokens.

package threadstate

import (
	"encoding/json"

	"github.com/2389/coven-prefs/prefs"
	"github.com/2389/coven-prefs/statestore"
)

// Entry holds one thread's stored state. The zero value means the thread
// has nothing set and must not be stored.
type Entry struct {
	DefaultEngine string
	TriggerMode   prefs.TriggerMode
	Context       prefs.RunContext
	Overrides     map[string]prefs.EngineOverrides
	ResumeTokens  map[string]string
}

// IsZero reports whether every field is at its default. Zero entries are
// pruned from their room's thread map after the mutation that emptied them.
func (e *Entry) IsZero() bool {
	return e.DefaultEngine == "" &&
		e.TriggerMode == "" &&
		e.Context.IsZero() &&
		len(e.Overrides) == 0 &&
		len(e.ResumeTokens) == 0
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

// entryJSON is the on-disk shape of an Entry.
type entryJSON struct {
	DefaultEngine string                           `json:"default_engine,omitempty"`
	TriggerMode   prefs.TriggerMode                `json:"trigger_mode,omitempty"`
	BoundContext  *prefs.RunContext                `json:"bound_context,omitempty"`
	Overrides     map[string]prefs.EngineOverrides `json:"overrides,omitempty"`
	ResumeTokens  map[string]string                `json:"resume_tokens,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		DefaultEngine: e.DefaultEngine,
		TriggerMode:   e.TriggerMode,
		Overrides:     e.Overrides,
		ResumeTokens:  e.ResumeTokens,
	}
	if !e.Context.IsZero() {
		ctx := e.Context
		out.BoundContext = &ctx
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a stored thread entry. Wrong-typed fields decode as
// absent rather than failing the document; a value that is not an object at
// all reads as an empty entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = Entry{}

	raw := statestore.ObjectField(data)
	if raw == nil {
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
	e.ResumeTokens = decodeTokens(raw["resume_tokens"])
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

// decodeTokens decodes a resume-token map, normalizing engine ids and
// dropping empty values.
func decodeTokens(raw json.RawMessage) map[string]string {
	obj := statestore.ObjectField(raw)
	if obj == nil {
		return nil
	}
	var out map[string]string
	for engine, value := range obj {
		key := prefs.NormalizeEngineID(engine)
		token := prefs.NormalizeText(statestore.StringField(value))
		if key == "" || token == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = token
	}
	return out
}
