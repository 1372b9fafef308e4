// ABOUTME: Tests for the per-(room, sender) chat session store.
// ABOUTME: Covers token round trips, clearing, and sender/room pruning.

package chatsessions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"

	"github.com/2389/coven-prefs/prefs"
)

const (
	testRoom   = id.RoomID("!room:example.org")
	testSender = id.UserID("@alice:example.org")
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), StateFilename)
	store, err := Open(path, nil)
	require.NoError(t, err)
	return store, path
}

func TestResumeToken_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "Claude", Value: "session-abc"}))

	token, found, err := store.ResumeToken(ctx, testRoom, testSender, "claude")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, prefs.ResumeToken{Engine: "claude", Value: "session-abc"}, token)

	// Scoped to the sender: another user in the same room sees nothing.
	_, found, err = store.ResumeToken(ctx, testRoom, "@bob:example.org", "claude")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetResumeToken_EmptyIgnored(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "", Value: "x"}))
	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "claude", Value: "  "}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestClearSessions_PrunesSenderAndRoom(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "claude", Value: "session-abc"}))
	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "codex", Value: "session-def"}))
	require.NoError(t, store.ClearSessions(ctx, testRoom, testSender))

	_, found, err := store.ResumeToken(ctx, testRoom, testSender, "claude")
	require.NoError(t, err)
	assert.False(t, found)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Rooms map[string]json.RawMessage `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	_, present := doc.Rooms[string(testRoom)]
	assert.False(t, present, "room with no senders left must be pruned")
}

func TestClearSessions_OtherSenderKeepsRoom(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	other := id.UserID("@bob:example.org")

	require.NoError(t, store.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "claude", Value: "session-abc"}))
	require.NoError(t, store.SetResumeToken(ctx, testRoom, other, prefs.ResumeToken{Engine: "claude", Value: "session-def"}))
	require.NoError(t, store.ClearSessions(ctx, testRoom, testSender))

	token, found, err := store.ResumeToken(ctx, testRoom, other, "claude")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "session-def", token.Value)
}

func TestClearSessions_IdempotentNoWrite(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, store.ClearSessions(context.Background(), testRoom, testSender))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPersistence_AcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFilename)
	ctx := context.Background()

	first, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.SetResumeToken(ctx, testRoom, testSender, prefs.ResumeToken{Engine: "claude", Value: "session-abc"}))

	second, err := Open(path, nil)
	require.NoError(t, err)
	token, found, err := second.ResumeToken(ctx, testRoom, testSender, "claude")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "session-abc", token.Value)
}

func TestRead_WrongTypedTokensDegrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFilename)
	content := `{
		"version": 1,
		"rooms": {
			"!room:example.org": {
				"@alice:example.org": {"claude": 42, "codex": "session-def"}
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := Open(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := store.ResumeToken(ctx, testRoom, testSender, "claude")
	require.NoError(t, err)
	assert.False(t, found)

	token, found, err := store.ResumeToken(ctx, testRoom, testSender, "codex")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "session-def", token.Value)
}
