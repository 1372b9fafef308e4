// Package statestore provides a generic durable store mapping a typed
// document to a JSON file on disk.
//
// # Model
//
// A Store owns exactly one file and one transaction lock. Every read and
// every mutation funnels through Transact (or its read-only wrapper View),
// so operations against one store instance are totally ordered by lock
// acquisition. Store instances never share locks, even when callers point
// two instances at the same path.
//
// # Versioning
//
// Each document carries an integer schema version. Open parses the file,
// and when the stored version is older than the current one it applies
// migration steps sequentially (N to N+1 and so on) and persists the result
// immediately. A missing step is a fatal error: the store refuses to guess
// at unknown schemas. A version newer than the current one is also fatal.
//
// # Durability
//
// Writes go to a temporary file in the same directory followed by a rename,
// so a failed write never touches the destination. The store remembers a
// fingerprint (size plus mtime) of the file it last loaded; when the on-disk
// fingerprint differs at the start of a transaction (an operator hand-edit,
// or a second instance sharing the path) the file is reloaded before the
// transaction runs. Malformed JSON is always surfaced as an error, never
// silently replaced with an empty document.
//
// # Cancellation
//
// Transact honors context cancellation while waiting for the lock and skips
// cancelled transactions before they start. Once the callback has reported a
// change, the write is allowed to complete regardless of cancellation so the
// destination file is never left partially written.
package statestore
