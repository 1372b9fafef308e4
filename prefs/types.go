// ABOUTME: Value types for scoped engine preferences.
// ABOUTME: Defines RunContext, EngineOverrides, ResumeToken and TriggerMode.

package prefs

// TriggerMode is the response-trigger policy for a scope. The zero value
// means "not set", which resolves to responding to all messages.
type TriggerMode string

// TriggerMentions requires the bridge to be explicitly addressed before it
// responds. It is the only mode that is ever persisted; "all" is the default
// and is represented by the absence of a stored value.
const TriggerMentions TriggerMode = "mentions"

// RunContext is a bound working context: a project key plus an optional
// branch. It is independent of engine choice.
type RunContext struct {
	Project string `json:"project"`
	Branch  string `json:"branch,omitempty"`
}

// IsZero reports whether the context carries no project. A context without a
// project is meaningless and is treated as absent everywhere.
func (c RunContext) IsZero() bool {
	return c.Project == ""
}

// EngineOverrides holds the per-engine runtime parameter overrides for one
// scope. Either field may be empty, meaning the engine's own default applies
// for that field.
type EngineOverrides struct {
	Model     string `json:"model,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// IsZero reports whether both fields are absent. A zero override is never
// stored; the stores delete the map entry instead.
func (o EngineOverrides) IsZero() bool {
	return o.Model == "" && o.Reasoning == ""
}

// ResumeToken is an opaque continuation handle for one engine's ongoing
// session within a scope. The value is never interpreted beyond
// non-emptiness.
type ResumeToken struct {
	Engine string
	Value  string
}
