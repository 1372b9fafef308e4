// Package prefs defines the value types shared by the scoped preference
// stores and the precedence resolver.
//
// # Types
//
//   - RunContext: a bound working context (project plus optional branch)
//   - EngineOverrides: per-engine model/reasoning overrides
//   - ResumeToken: opaque session continuation handle for one engine
//   - TriggerMode: response-trigger policy for a room or thread
//
// # Normalization
//
// Engine identifiers are trimmed and lowercased before they are used as map
// keys or compared; the empty string is never a valid id. Free-text values
// (models, reasoning levels, branch names) are trimmed only. Trigger modes
// collapse to either "mentions" or unset; "all" and every unrecognized
// value mean unset, because "all" is the built-in default.
//
// All types here are plain values with no behavior beyond normalization and
// emptiness checks; the stores decide when an empty value means "delete".
package prefs
