// ABOUTME: Per-field override resolution: thread tier, then room, then none.
// ABOUTME: Fields resolve independently; raw tier values are kept for display.

package resolve

import "github.com/2389/coven-prefs/prefs"

// OverrideTier identifies the precedence level that supplied a resolved
// override or trigger mode.
type OverrideTier string

const (
	OverrideTierThread  OverrideTier = "thread_override"
	OverrideTierRoom    OverrideTier = "room_default"
	OverrideTierDefault OverrideTier = "default"
)

var overrideTierLabels = map[OverrideTier]string{
	OverrideTierThread:  "thread override",
	OverrideTierRoom:    "room default",
	OverrideTierDefault: "default",
}

// Label returns the user-facing name of the tier, for explanatory replies.
func (t OverrideTier) Label() string {
	return overrideTierLabels[t]
}

// Field names one independently-resolved override field.
type Field string

const (
	FieldModel     Field = "model"
	FieldReasoning Field = "reasoning"
)

// pick extracts one field from an override value.
func pick(o prefs.EngineOverrides, field Field) string {
	if field == FieldReasoning {
		return o.Reasoning
	}
	return o.Model
}

// OverrideResolution is the outcome for one field: the winning value (empty
// means the engine's own built-in default applies), the tier that supplied
// it, and the raw thread- and room-tier values regardless of which won.
type OverrideResolution struct {
	Value string
	Tier  OverrideTier

	ThreadValue string
	RoomValue   string
}

// OverrideValue resolves one override field. Callers that are not in a
// thread pass a zero thread value so resolution starts at the room tier.
// Each field falls through independently: a thread override that sets only
// the model leaves reasoning to the room tier.
func OverrideValue(thread, room prefs.EngineOverrides, field Field) OverrideResolution {
	res := OverrideResolution{
		ThreadValue: pick(thread, field),
		RoomValue:   pick(room, field),
	}
	switch {
	case res.ThreadValue != "":
		res.Value = res.ThreadValue
		res.Tier = OverrideTierThread
	case res.RoomValue != "":
		res.Value = res.RoomValue
		res.Tier = OverrideTierRoom
	default:
		res.Tier = OverrideTierDefault
	}
	return res
}
