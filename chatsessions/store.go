// ABOUTME: Per-(room, sender) session resume-token store for room chats.
// ABOUTME: One JSON file; engine-keyed tokens with bottom-up pruning.

package chatsessions

import (
	"context"
	"log/slog"
	"path/filepath"

	"maunium.net/go/mautrix/id"

	"github.com/2389/coven-prefs/prefs"
	"github.com/2389/coven-prefs/statestore"
)

const (
	// StateVersion is the current schema version of the chat sessions file.
	StateVersion = 1

	// StateFilename is the chat sessions file name, resolved adjacent to
	// the bridge configuration file.
	StateFilename = "matrix_chat_sessions_state.json"
)

// ResolvePath returns the chat sessions state file path for a given bridge
// config file path: same directory, fixed name.
func ResolvePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), StateFilename)
}

// tokens maps normalized engine ids to resume-token values. It decodes
// leniently: wrong-typed values and empty strings are dropped rather than
// failing the document.
type tokens map[string]string

func (t *tokens) UnmarshalJSON(data []byte) error {
	*t = nil
	obj := statestore.ObjectField(data)
	if obj == nil {
		return nil
	}
	for engine, value := range obj {
		key := prefs.NormalizeEngineID(engine)
		token := prefs.NormalizeText(statestore.StringField(value))
		if key == "" || token == "" {
			continue
		}
		if *t == nil {
			*t = make(tokens)
		}
		(*t)[key] = token
	}
	return nil
}

// document is the on-disk shape: rooms mapping to senders mapping to
// engine-keyed tokens.
type document struct {
	Version int                                `json:"version"`
	Rooms   map[id.RoomID]map[id.UserID]tokens `json:"rooms,omitempty"`
}

func newDocument() *document {
	return &document{Version: StateVersion}
}

// Store provides per-(room, sender) resume-token access.
type Store struct {
	store *statestore.Store[document]
}

// Open loads (or lazily initializes) the chat sessions file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	inner, err := statestore.Open(path, StateVersion, nil, newDocument, logger)
	if err != nil {
		return nil, err
	}
	return &Store{store: inner}, nil
}

// ResumeToken returns the stored continuation token for an engine, scoped
// to one sender in one room, or false when none is stored.
func (s *Store) ResumeToken(ctx context.Context, room id.RoomID, sender id.UserID, engine string) (prefs.ResumeToken, bool, error) {
	key := prefs.NormalizeEngineID(engine)
	if key == "" {
		return prefs.ResumeToken{}, false, nil
	}
	var (
		token prefs.ResumeToken
		found bool
	)
	err := s.store.View(ctx, func(doc *document) error {
		if value, ok := doc.Rooms[room][sender][key]; ok {
			token = prefs.ResumeToken{Engine: key, Value: value}
			found = true
		}
		return nil
	})
	return token, found, err
}

// SetResumeToken stores an engine's continuation token for a sender in a
// room. A token whose engine or value normalizes to empty is ignored.
func (s *Store) SetResumeToken(ctx context.Context, room id.RoomID, sender id.UserID, token prefs.ResumeToken) error {
	key := prefs.NormalizeEngineID(token.Engine)
	value := prefs.NormalizeText(token.Value)
	if key == "" || value == "" {
		return nil
	}
	return s.store.Transact(ctx, func(doc *document) (bool, error) {
		if doc.Rooms[room][sender][key] == value {
			return false, nil
		}
		if doc.Rooms == nil {
			doc.Rooms = make(map[id.RoomID]map[id.UserID]tokens)
		}
		if doc.Rooms[room] == nil {
			doc.Rooms[room] = make(map[id.UserID]tokens)
		}
		if doc.Rooms[room][sender] == nil {
			doc.Rooms[room][sender] = make(tokens)
		}
		doc.Rooms[room][sender][key] = value
		return true, nil
	})
}

// ClearSessions removes every stored token for one sender in one room,
// pruning the sender and, when it was the last one, the room.
func (s *Store) ClearSessions(ctx context.Context, room id.RoomID, sender id.UserID) error {
	return s.store.Transact(ctx, func(doc *document) (bool, error) {
		senders := doc.Rooms[room]
		if len(senders[sender]) == 0 {
			return false, nil
		}
		delete(senders, sender)
		if len(senders) == 0 {
			delete(doc.Rooms, room)
		}
		return true, nil
	})
}
