// ABOUTME: Per-(room, thread) state store backed by a durable JSON file.
// ABOUTME: Mirrors the room store surface plus resume tokens, two-level pruning.

package threadstate

import (
	"context"
	"log/slog"
	"path/filepath"

	"maunium.net/go/mautrix/id"

	"github.com/2389/coven-prefs/prefs"
	"github.com/2389/coven-prefs/statestore"
)

const (
	// StateVersion is the current schema version of the thread state file.
	StateVersion = 1

	// StateFilename is the thread state file name, resolved adjacent to the
	// bridge configuration file.
	StateFilename = "matrix_thread_state.json"
)

// ResolvePath returns the thread state file path for a given bridge config
// file path: same directory, fixed name.
func ResolvePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), StateFilename)
}

// document is the on-disk shape of the thread state file: rooms mapping to
// thread-root event ids mapping to entries.
type document struct {
	Version int                                 `json:"version"`
	Rooms   map[id.RoomID]map[id.EventID]*Entry `json:"rooms,omitempty"`
}

func newDocument() *document {
	return &document{Version: StateVersion}
}

// Store provides per-thread state access. All methods are safe for
// interleaved use; mutations are serialized by the underlying state store.
type Store struct {
	store *statestore.Store[document]
}

// Open loads (or lazily initializes) the thread state file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	inner, err := statestore.Open(path, StateVersion, nil, newDocument, logger)
	if err != nil {
		return nil, err
	}
	return &Store{store: inner}, nil
}

// DefaultEngine returns the thread's default engine id, or "" when none is
// set.
func (s *Store) DefaultEngine(ctx context.Context, room id.RoomID, thread id.EventID) (string, error) {
	var engine string
	err := s.view(ctx, room, thread, func(e *Entry) {
		engine = e.DefaultEngine
	})
	return engine, err
}

// SetDefaultEngine sets the thread's default engine. An engine that
// normalizes to empty clears it.
func (s *Store) SetDefaultEngine(ctx context.Context, room id.RoomID, thread id.EventID, engine string) error {
	normalized := prefs.NormalizeEngineID(engine)
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		if e.DefaultEngine == normalized {
			return false
		}
		e.DefaultEngine = normalized
		return true
	})
}

// ClearDefaultEngine removes the thread's default engine.
func (s *Store) ClearDefaultEngine(ctx context.Context, room id.RoomID, thread id.EventID) error {
	return s.SetDefaultEngine(ctx, room, thread, "")
}

// TriggerMode returns the thread's stored trigger mode; empty means no
// thread-level override.
func (s *Store) TriggerMode(ctx context.Context, room id.RoomID, thread id.EventID) (prefs.TriggerMode, error) {
	var mode prefs.TriggerMode
	err := s.view(ctx, room, thread, func(e *Entry) {
		mode = e.TriggerMode
	})
	return mode, err
}

// SetTriggerMode sets the thread's trigger mode. "all" and any unrecognized
// value clear the stored mode.
func (s *Store) SetTriggerMode(ctx context.Context, room id.RoomID, thread id.EventID, mode string) error {
	normalized := prefs.NormalizeTriggerMode(mode)
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		if e.TriggerMode == normalized {
			return false
		}
		e.TriggerMode = normalized
		return true
	})
}

// ClearTriggerMode removes the thread's trigger mode override.
func (s *Store) ClearTriggerMode(ctx context.Context, room id.RoomID, thread id.EventID) error {
	return s.SetTriggerMode(ctx, room, thread, "")
}

// Context returns the thread's bound working context; the zero RunContext
// means none is bound.
func (s *Store) Context(ctx context.Context, room id.RoomID, thread id.EventID) (prefs.RunContext, error) {
	var bound prefs.RunContext
	err := s.view(ctx, room, thread, func(e *Entry) {
		bound = e.Context
	})
	return bound, err
}

// SetContext binds a working context to the thread. A context whose project
// normalizes to empty clears the binding.
func (s *Store) SetContext(ctx context.Context, room id.RoomID, thread id.EventID, bound prefs.RunContext) error {
	normalized := prefs.NormalizeContext(bound)
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		if e.Context == normalized {
			return false
		}
		e.Context = normalized
		return true
	})
}

// ClearContext removes the thread's bound working context.
func (s *Store) ClearContext(ctx context.Context, room id.RoomID, thread id.EventID) error {
	return s.SetContext(ctx, room, thread, prefs.RunContext{})
}

// Override returns the thread's stored overrides for an engine; the zero
// value means none are stored.
func (s *Store) Override(ctx context.Context, room id.RoomID, thread id.EventID, engine string) (prefs.EngineOverrides, error) {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return prefs.EngineOverrides{}, nil
	}
	var o prefs.EngineOverrides
	err := s.view(ctx, room, thread, func(e *Entry) {
		o = e.override(key)
	})
	return o, err
}

// SetModelOverride sets the model override for an engine, leaving any
// stored reasoning override untouched. An empty model clears only the model
// field.
func (s *Store) SetModelOverride(ctx context.Context, room id.RoomID, thread id.EventID, engine, model string) error {
	return s.updateOverride(ctx, room, thread, engine, func(o prefs.EngineOverrides) prefs.EngineOverrides {
		o.Model = prefs.NormalizeText(model)
		return o
	})
}

// SetReasoningOverride sets the reasoning override for an engine, leaving
// any stored model override untouched. An empty level clears only the
// reasoning field.
func (s *Store) SetReasoningOverride(ctx context.Context, room id.RoomID, thread id.EventID, engine, reasoning string) error {
	return s.updateOverride(ctx, room, thread, engine, func(o prefs.EngineOverrides) prefs.EngineOverrides {
		o.Reasoning = prefs.NormalizeText(reasoning)
		return o
	})
}

// ClearOverride removes all stored overrides for an engine.
func (s *Store) ClearOverride(ctx context.Context, room id.RoomID, thread id.EventID, engine string) error {
	return s.updateOverride(ctx, room, thread, engine, func(prefs.EngineOverrides) prefs.EngineOverrides {
		return prefs.EngineOverrides{}
	})
}

// ResumeToken returns the stored continuation token for an engine in this
// thread, or false when none is stored.
func (s *Store) ResumeToken(ctx context.Context, room id.RoomID, thread id.EventID, engine string) (prefs.ResumeToken, bool, error) {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return prefs.ResumeToken{}, false, nil
	}
	var (
		token prefs.ResumeToken
		found bool
	)
	err := s.view(ctx, room, thread, func(e *Entry) {
		if value, ok := e.ResumeTokens[key]; ok {
			token = prefs.ResumeToken{Engine: key, Value: value}
			found = true
		}
	})
	return token, found, err
}

// SetResumeToken stores an engine's continuation token for this thread.
// Tokens are opaque; a token whose engine or value normalizes to empty is
// ignored.
func (s *Store) SetResumeToken(ctx context.Context, room id.RoomID, thread id.EventID, token prefs.ResumeToken) error {
	key := prefs.NormalizeEngineID(token.Engine)
	value := prefs.NormalizeText(token.Value)
	if key == "" || value == "" {
		return nil
	}
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		if e.ResumeTokens[key] == value {
			return false
		}
		if e.ResumeTokens == nil {
			e.ResumeTokens = make(map[string]string)
		}
		e.ResumeTokens[key] = value
		return true
	})
}

// ClearSessions wipes the thread's resume-token map, leaving every other
// field untouched.
func (s *Store) ClearSessions(ctx context.Context, room id.RoomID, thread id.EventID) error {
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		if len(e.ResumeTokens) == 0 {
			return false
		}
		e.ResumeTokens = nil
		return true
	})
}

// updateOverride applies a field-level edit to one engine's overrides.
// Engine ids that normalize to empty are ignored.
func (s *Store) updateOverride(ctx context.Context, room id.RoomID, thread id.EventID, engine string, edit func(prefs.EngineOverrides) prefs.EngineOverrides) error {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return nil
	}
	return s.mutate(ctx, room, thread, func(e *Entry) bool {
		current := e.override(key)
		next := edit(current)
		if next == current {
			return false
		}
		e.setOverride(key, next)
		return true
	})
}

// view reads one thread's entry; absent rooms or threads are simply
// skipped. Reads never materialize an entry.
func (s *Store) view(ctx context.Context, room id.RoomID, thread id.EventID, fn func(e *Entry)) error {
	if thread == "" {
		return nil
	}
	return s.store.View(ctx, func(doc *document) error {
		if e := doc.Rooms[room][thread]; e != nil {
			fn(e)
		}
		return nil
	})
}

// mutate runs an edit against one thread's entry in a single transaction,
// then prunes bottom-up: an emptied entry leaves the room's thread map, and
// an emptied thread map takes the room key with it.
func (s *Store) mutate(ctx context.Context, room id.RoomID, thread id.EventID, fn func(e *Entry) bool) error {
	if thread == "" {
		return nil
	}
	return s.store.Transact(ctx, func(doc *document) (bool, error) {
		threads := doc.Rooms[room]
		entry := threads[thread]
		created := entry == nil
		if created {
			entry = &Entry{}
		}
		if !fn(entry) {
			return false, nil
		}
		if entry.IsZero() {
			delete(threads, thread)
			if len(threads) == 0 {
				delete(doc.Rooms, room)
			}
			return true, nil
		}
		if created {
			if doc.Rooms == nil {
				doc.Rooms = make(map[id.RoomID]map[id.EventID]*Entry)
			}
			if threads == nil {
				threads = make(map[id.EventID]*Entry)
				doc.Rooms[room] = threads
			}
			threads[thread] = entry
		}
		return true, nil
	})
}
