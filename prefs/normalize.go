// ABOUTME: Normalization rules for preference values.
// ABOUTME: Trims free text, case-folds engine ids, collapses trigger modes.

package prefs

import "strings"

// NormalizeText trims surrounding whitespace. An all-whitespace value
// normalizes to the empty string, which the stores treat as absent.
func NormalizeText(value string) string {
	return strings.TrimSpace(value)
}

// NormalizeEngineID trims and lowercases an engine identifier so that it is
// stable as a map key and in comparisons. Empty in, empty out.
func NormalizeEngineID(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeTriggerMode collapses a textual trigger mode into its stored
// form: "mentions" (any case, surrounding whitespace ignored) stays; every
// other value, "all" included, normalizes to unset.
func NormalizeTriggerMode(value string) TriggerMode {
	if TriggerMode(strings.ToLower(strings.TrimSpace(value))) == TriggerMentions {
		return TriggerMentions
	}
	return ""
}

// NormalizeOverrides trims both override fields.
func NormalizeOverrides(o EngineOverrides) EngineOverrides {
	return EngineOverrides{
		Model:     NormalizeText(o.Model),
		Reasoning: NormalizeText(o.Reasoning),
	}
}

// NormalizeContext trims both context fields. A context whose project
// normalizes to empty is zero regardless of branch.
func NormalizeContext(c RunContext) RunContext {
	c = RunContext{
		Project: NormalizeText(c.Project),
		Branch:  NormalizeText(c.Branch),
	}
	if c.Project == "" {
		return RunContext{}
	}
	return c
}
