// Package roomprefs stores per-room bridge preferences: the room's default
// engine, its response-trigger mode, its bound working context, and
// per-engine model/reasoning overrides.
//
// State lives in one JSON file managed by a statestore.Store; every getter
// and setter is a single transaction against it. Entries are created lazily
// on the first mutating write and deleted as soon as a mutation empties
// them, so the file never accumulates empty residue.
//
// # Legacy format
//
// Early versions of the file mapped a room id directly to a bare engine-id
// string. Those values still decode: a string entry reads as a room whose
// default engine is that string and whose every other field is absent. This
// per-entry upgrade happens in the entry decoder, deliberately apart from
// the whole-file version migration run at open.
package roomprefs
