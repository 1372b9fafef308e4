// ABOUTME: Trigger-mode resolution: thread tier, then room, then "all".
// ABOUTME: Same two-tier pattern as overrides for a single policy field.

package resolve

import "github.com/2389/coven-prefs/prefs"

// TriggerAll is the resolved mode when no scope stores an override: respond
// to every message. It is never persisted, only resolved.
const TriggerAll = "all"

// TriggerResolution is the outcome: the effective mode ("all" or
// "mentions"), the tier that supplied it, and the raw per-tier values.
type TriggerResolution struct {
	Mode string
	Tier OverrideTier

	ThreadValue prefs.TriggerMode
	RoomValue   prefs.TriggerMode
}

// RequiresMention reports whether the bridge must be explicitly addressed
// before responding.
func (r TriggerResolution) RequiresMention() bool {
	return r.Mode == string(prefs.TriggerMentions)
}

// TriggerMode resolves the effective trigger mode. Callers that are not in
// a thread pass a zero thread value so resolution starts at the room tier.
func TriggerMode(thread, room prefs.TriggerMode) TriggerResolution {
	res := TriggerResolution{
		ThreadValue: thread,
		RoomValue:   room,
	}
	switch {
	case thread != "":
		res.Mode = string(thread)
		res.Tier = OverrideTierThread
	case room != "":
		res.Mode = string(room)
		res.Tier = OverrideTierRoom
	default:
		res.Mode = TriggerAll
		res.Tier = OverrideTierDefault
	}
	return res
}
