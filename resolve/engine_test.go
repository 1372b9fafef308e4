// ABOUTME: Tests for engine selection precedence.
// ABOUTME: Covers every tier, invalid candidates, and directive errors.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() Defaults {
	return Defaults{
		Engines: []string{"claude", "codex", "goose"},
		Projects: map[string]string{
			"takopi": "codex",
		},
		Global: "claude",
	}
}

func TestSelectEngine_Directive(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{
		Directive:     "Codex",
		InThread:      true,
		ThreadDefault: "goose",
		RoomDefault:   "claude",
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "codex", sel.Engine)
	assert.Equal(t, TierDirective, sel.Tier)
}

func TestSelectEngine_UnknownDirective(t *testing.T) {
	_, err := SelectEngine(EngineRequest{Directive: "gemini"}, testDefaults())
	require.ErrorIs(t, err, ErrUnknownEngine)
	assert.Contains(t, err.Error(), "gemini")
}

func TestSelectEngine_ThreadDefault(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{
		InThread:      true,
		ThreadDefault: "goose",
		RoomDefault:   "codex",
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "goose", sel.Engine)
	assert.Equal(t, TierThreadDefault, sel.Tier)

	// Raw candidates are carried for display.
	assert.Equal(t, "goose", sel.ThreadDefault)
	assert.Equal(t, "codex", sel.RoomDefault)
	assert.Equal(t, "claude", sel.GlobalDefault)
}

func TestSelectEngine_ThreadDefaultIgnoredOutsideThread(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{
		InThread:      false,
		ThreadDefault: "goose",
		RoomDefault:   "codex",
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "codex", sel.Engine)
	assert.Equal(t, TierRoomDefault, sel.Tier)
	assert.Equal(t, "", sel.ThreadDefault)
}

func TestSelectEngine_RoomDefault(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{RoomDefault: "codex"}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "codex", sel.Engine)
	assert.Equal(t, TierRoomDefault, sel.Tier)
}

func TestSelectEngine_ProjectDefault(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{Project: "takopi"}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "codex", sel.Engine)
	assert.Equal(t, TierProjectDefault, sel.Tier)
	assert.Equal(t, "codex", sel.ProjectDefault)
}

func TestSelectEngine_GlobalDefault(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "claude", sel.Engine)
	assert.Equal(t, TierGlobalDefault, sel.Tier)
}

func TestSelectEngine_StaleStoredDefaultSkipped(t *testing.T) {
	// A stored default naming an engine that was since removed from the
	// registry falls through silently instead of erroring.
	sel, err := SelectEngine(EngineRequest{
		InThread:      true,
		ThreadDefault: "removed-engine",
		RoomDefault:   "codex",
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "codex", sel.Engine)
	assert.Equal(t, TierRoomDefault, sel.Tier)
}

func TestSelectEngine_UnknownProjectFallsToGlobal(t *testing.T) {
	sel, err := SelectEngine(EngineRequest{Project: "unmapped"}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "claude", sel.Engine)
	assert.Equal(t, TierGlobalDefault, sel.Tier)
}

func TestSelectEngine_MissingGlobalDefault(t *testing.T) {
	defs := testDefaults()
	defs.Global = ""
	_, err := SelectEngine(EngineRequest{}, defs)
	require.ErrorIs(t, err, ErrNoGlobalDefault)

	defs.Global = "not-registered"
	_, err = SelectEngine(EngineRequest{}, defs)
	require.ErrorIs(t, err, ErrNoGlobalDefault)
}

func TestSelectEngine_Deterministic(t *testing.T) {
	req := EngineRequest{InThread: true, ThreadDefault: "goose", RoomDefault: "codex", Project: "takopi"}
	first, err := SelectEngine(req, testDefaults())
	require.NoError(t, err)
	second, err := SelectEngine(req, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngineTierLabels(t *testing.T) {
	assert.Equal(t, "thread default", TierThreadDefault.Label())
	assert.Equal(t, "room default", TierRoomDefault.Label())
	assert.Equal(t, "project default", TierProjectDefault.Label())
	assert.Equal(t, "global default", TierGlobalDefault.Label())
	assert.Equal(t, "directive", TierDirective.Label())
}
