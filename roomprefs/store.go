// ABOUTME: Per-room preference store backed by a durable JSON state file.
// ABOUTME: Each get/set/clear is one transaction; empty rooms are pruned.

package roomprefs

import (
	"context"
	"log/slog"
	"path/filepath"

	"maunium.net/go/mautrix/id"

	"github.com/2389/coven-prefs/prefs"
	"github.com/2389/coven-prefs/statestore"
)

const (
	// StateVersion is the current schema version of the room prefs file.
	StateVersion = 2

	// StateFilename is the room prefs file name, resolved adjacent to the
	// bridge configuration file.
	StateFilename = "matrix_room_prefs_state.json"
)

// ResolvePath returns the room prefs state file path for a given bridge
// config file path: same directory, fixed name.
func ResolvePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), StateFilename)
}

// document is the on-disk shape of the room prefs file.
type document struct {
	Version int                  `json:"version"`
	Rooms   map[id.RoomID]*Entry `json:"rooms,omitempty"`
}

func newDocument() *document {
	return &document{Version: StateVersion}
}

// migrations holds the whole-file schema migrations. Version 1 mapped each
// room id to a bare engine-id string; the entry decoder still accepts that
// shape lazily, so the 1->2 step only stamps the new version.
var migrations = map[int]statestore.Migration{
	1: func(raw map[string]any) (map[string]any, error) {
		return raw, nil
	},
}

// Store provides per-room preference access. All methods are safe for
// interleaved use; mutations are serialized by the underlying state store.
type Store struct {
	store *statestore.Store[document]
}

// Open loads (or lazily initializes) the room prefs file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	inner, err := statestore.Open(path, StateVersion, migrations, newDocument, logger)
	if err != nil {
		return nil, err
	}
	return &Store{store: inner}, nil
}

// DefaultEngine returns the room's default engine id, or "" when none is
// set.
func (s *Store) DefaultEngine(ctx context.Context, room id.RoomID) (string, error) {
	var engine string
	err := s.view(ctx, room, func(e *Entry) {
		engine = e.DefaultEngine
	})
	return engine, err
}

// SetDefaultEngine sets the room's default engine. An engine that
// normalizes to empty clears it.
func (s *Store) SetDefaultEngine(ctx context.Context, room id.RoomID, engine string) error {
	normalized := prefs.NormalizeEngineID(engine)
	return s.mutate(ctx, room, func(e *Entry) bool {
		if e.DefaultEngine == normalized {
			return false
		}
		e.DefaultEngine = normalized
		return true
	})
}

// ClearDefaultEngine removes the room's default engine.
func (s *Store) ClearDefaultEngine(ctx context.Context, room id.RoomID) error {
	return s.SetDefaultEngine(ctx, room, "")
}

// TriggerMode returns the room's stored trigger mode; empty means the
// default ("all").
func (s *Store) TriggerMode(ctx context.Context, room id.RoomID) (prefs.TriggerMode, error) {
	var mode prefs.TriggerMode
	err := s.view(ctx, room, func(e *Entry) {
		mode = e.TriggerMode
	})
	return mode, err
}

// SetTriggerMode sets the room's trigger mode. "all", the built-in default,
// and any unrecognized value clear the stored mode.
func (s *Store) SetTriggerMode(ctx context.Context, room id.RoomID, mode string) error {
	normalized := prefs.NormalizeTriggerMode(mode)
	return s.mutate(ctx, room, func(e *Entry) bool {
		if e.TriggerMode == normalized {
			return false
		}
		e.TriggerMode = normalized
		return true
	})
}

// ClearTriggerMode resets the room's trigger mode to the default.
func (s *Store) ClearTriggerMode(ctx context.Context, room id.RoomID) error {
	return s.SetTriggerMode(ctx, room, "")
}

// Context returns the room's bound working context; the zero RunContext
// means none is bound.
func (s *Store) Context(ctx context.Context, room id.RoomID) (prefs.RunContext, error) {
	var bound prefs.RunContext
	err := s.view(ctx, room, func(e *Entry) {
		bound = e.Context
	})
	return bound, err
}

// SetContext binds a working context to the room. A context whose project
// normalizes to empty clears the binding.
func (s *Store) SetContext(ctx context.Context, room id.RoomID, bound prefs.RunContext) error {
	normalized := prefs.NormalizeContext(bound)
	return s.mutate(ctx, room, func(e *Entry) bool {
		if e.Context == normalized {
			return false
		}
		e.Context = normalized
		return true
	})
}

// ClearContext removes the room's bound working context.
func (s *Store) ClearContext(ctx context.Context, room id.RoomID) error {
	return s.SetContext(ctx, room, prefs.RunContext{})
}

// Override returns the room's stored overrides for an engine; the zero
// value means none are stored.
func (s *Store) Override(ctx context.Context, room id.RoomID, engine string) (prefs.EngineOverrides, error) {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return prefs.EngineOverrides{}, nil
	}
	var o prefs.EngineOverrides
	err := s.view(ctx, room, func(e *Entry) {
		o = e.override(key)
	})
	return o, err
}

// SetModelOverride sets the model override for an engine, leaving any
// stored reasoning override untouched. An empty model clears only the model
// field.
func (s *Store) SetModelOverride(ctx context.Context, room id.RoomID, engine, model string) error {
	return s.updateOverride(ctx, room, engine, func(o prefs.EngineOverrides) prefs.EngineOverrides {
		o.Model = prefs.NormalizeText(model)
		return o
	})
}

// SetReasoningOverride sets the reasoning override for an engine, leaving
// any stored model override untouched. An empty level clears only the
// reasoning field.
func (s *Store) SetReasoningOverride(ctx context.Context, room id.RoomID, engine, reasoning string) error {
	return s.updateOverride(ctx, room, engine, func(o prefs.EngineOverrides) prefs.EngineOverrides {
		o.Reasoning = prefs.NormalizeText(reasoning)
		return o
	})
}

// ClearOverride removes all stored overrides for an engine.
func (s *Store) ClearOverride(ctx context.Context, room id.RoomID, engine string) error {
	return s.updateOverride(ctx, room, engine, func(prefs.EngineOverrides) prefs.EngineOverrides {
		return prefs.EngineOverrides{}
	})
}

// AllRooms returns every room that has a default engine set, mapped to that
// engine.
func (s *Store) AllRooms(ctx context.Context) (map[id.RoomID]string, error) {
	out := make(map[id.RoomID]string)
	err := s.store.View(ctx, func(doc *document) error {
		for room, entry := range doc.Rooms {
			if entry != nil && entry.DefaultEngine != "" {
				out[room] = entry.DefaultEngine
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateOverride applies a field-level edit to one engine's overrides.
// Engine ids that normalize to empty are ignored.
func (s *Store) updateOverride(ctx context.Context, room id.RoomID, engine string, edit func(prefs.EngineOverrides) prefs.EngineOverrides) error {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return nil
	}
	return s.mutate(ctx, room, func(e *Entry) bool {
		current := e.override(key)
		next := edit(current)
		if next == current {
			return false
		}
		e.setOverride(key, next)
		return true
	})
}

// view reads one room's entry; absent rooms are simply skipped. Reads never
// materialize an entry.
func (s *Store) view(ctx context.Context, room id.RoomID, fn func(e *Entry)) error {
	return s.store.View(ctx, func(doc *document) error {
		if e := doc.Rooms[room]; e != nil {
			fn(e)
		}
		return nil
	})
}

// mutate runs an edit against one room's entry in a single transaction. The
// entry is created lazily only when the edit reports a change, and deleted
// when the edit leaves it empty, so an untouched or emptied room never
// lingers in the file.
func (s *Store) mutate(ctx context.Context, room id.RoomID, fn func(e *Entry) bool) error {
	return s.store.Transact(ctx, func(doc *document) (bool, error) {
		entry := doc.Rooms[room]
		created := entry == nil
		if created {
			entry = &Entry{}
		}
		if !fn(entry) {
			return false, nil
		}
		if entry.IsZero() {
			delete(doc.Rooms, room)
			return true, nil
		}
		if created {
			if doc.Rooms == nil {
				doc.Rooms = make(map[id.RoomID]*Entry)
			}
			doc.Rooms[room] = entry
		}
		return true, nil
	})
}
