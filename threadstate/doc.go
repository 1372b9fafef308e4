// Package threadstate stores per-thread bridge state, keyed by room id and
// thread root event id: the thread's default engine, trigger mode, bound
// working context, per-engine overrides, and per-engine session resume
// tokens.
//
// The field surface mirrors the room-scope store in package roomprefs; the
// additions are resume tokens (opaque continuation handles, one per engine)
// and ClearSessions, which wipes only the token map.
//
// Pruning is two-level: a mutation that empties a thread entry removes it
// from its room's thread map, and removing the last thread removes the room
// key from the document entirely. The state file therefore only ever holds
// threads with something actually set.
package threadstate
