// ABOUTME: Engine selection across the five precedence tiers.
// ABOUTME: directive > thread default > room default > project > global.

package resolve

import (
	"errors"
	"fmt"

	"github.com/2389/coven-prefs/prefs"
)

// ErrUnknownEngine is returned when an explicit directive names an engine
// outside the valid set. Stored defaults outside the set are skipped
// silently instead, because they may simply be stale after a config change.
var ErrUnknownEngine = errors.New("unknown engine")

// ErrNoGlobalDefault is returned when the externally supplied global
// default is missing or not in the valid set. That is a configuration
// defect: exactly one valid global default must always exist.
var ErrNoGlobalDefault = errors.New("no valid global default engine")

// EngineTier identifies the precedence level that supplied a selected
// engine.
type EngineTier string

const (
	TierDirective      EngineTier = "directive"
	TierThreadDefault  EngineTier = "thread_default"
	TierRoomDefault    EngineTier = "room_default"
	TierProjectDefault EngineTier = "project_default"
	TierGlobalDefault  EngineTier = "global_default"
)

var engineTierLabels = map[EngineTier]string{
	TierDirective:      "directive",
	TierThreadDefault:  "thread default",
	TierRoomDefault:    "room default",
	TierProjectDefault: "project default",
	TierGlobalDefault:  "global default",
}

// Label returns the user-facing name of the tier, for explanatory replies.
func (t EngineTier) Label() string {
	return engineTierLabels[t]
}

// Defaults is the externally supplied engine registry: the set of valid
// engine ids, the per-project default engines, and the single global
// default.
type Defaults struct {
	Engines  []string
	Projects map[string]string
	Global   string
}

// contains reports whether an already-normalized engine id is in the valid
// set.
func (d Defaults) contains(engine string) bool {
	if engine == "" {
		return false
	}
	for _, candidate := range d.Engines {
		if prefs.NormalizeEngineID(candidate) == engine {
			return true
		}
	}
	return false
}

// EngineRequest carries the per-message inputs to engine selection. Stored
// defaults are passed in by the caller; ThreadDefault is only consulted
// when InThread is set.
type EngineRequest struct {
	Directive     string
	InThread      bool
	ThreadDefault string
	RoomDefault   string

	// Project is the resolved working context's project key, used to look
	// up a per-project default. Empty means no bound project.
	Project string
}

// EngineSelection is the outcome: the chosen engine, the tier that supplied
// it, and the raw per-tier candidates for display.
type EngineSelection struct {
	Engine string
	Tier   EngineTier

	ThreadDefault  string
	RoomDefault    string
	ProjectDefault string
	GlobalDefault  string
}

// SelectEngine picks the engine for a message, walking the tiers from most
// to least specific. Stored defaults that are not in the valid set fall
// through to the next tier; an invalid explicit directive is an error the
// caller should surface to the user.
func SelectEngine(req EngineRequest, defs Defaults) (EngineSelection, error) {
	sel := EngineSelection{
		RoomDefault:   prefs.NormalizeEngineID(req.RoomDefault),
		GlobalDefault: prefs.NormalizeEngineID(defs.Global),
	}
	if req.InThread {
		sel.ThreadDefault = prefs.NormalizeEngineID(req.ThreadDefault)
	}
	if req.Project != "" {
		sel.ProjectDefault = prefs.NormalizeEngineID(defs.Projects[req.Project])
	}

	if directive := prefs.NormalizeEngineID(req.Directive); directive != "" {
		if !defs.contains(directive) {
			return EngineSelection{}, fmt.Errorf("%w: %q", ErrUnknownEngine, directive)
		}
		sel.Engine = directive
		sel.Tier = TierDirective
		return sel, nil
	}
	if defs.contains(sel.ThreadDefault) {
		sel.Engine = sel.ThreadDefault
		sel.Tier = TierThreadDefault
		return sel, nil
	}
	if defs.contains(sel.RoomDefault) {
		sel.Engine = sel.RoomDefault
		sel.Tier = TierRoomDefault
		return sel, nil
	}
	if defs.contains(sel.ProjectDefault) {
		sel.Engine = sel.ProjectDefault
		sel.Tier = TierProjectDefault
		return sel, nil
	}
	if !defs.contains(sel.GlobalDefault) {
		return EngineSelection{}, ErrNoGlobalDefault
	}
	sel.Engine = sel.GlobalDefault
	sel.Tier = TierGlobalDefault
	return sel, nil
}
