// Package resolve implements the precedence rules that decide which engine,
// which override values, and which trigger mode apply to an inbound
// message.
//
// Everything here is a pure function over already-fetched scope data (the
// room and thread stores) plus externally supplied defaults (the engine
// registry, per-project defaults, the global default). Nothing in this
// package reads or writes a store: callers gather the inputs, resolution
// just ranks them. Identical inputs always produce identical outputs.
//
// Every result carries the tier that supplied the winning value along with
// the raw per-tier candidates, so the command layer can render explanatory
// text like "engine: claude (room default)" and show what each tier would
// have contributed.
package resolve
