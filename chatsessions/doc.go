// Package chatsessions stores per-(room, sender) session resume tokens for
// plain room chats, the counterpart of the per-thread tokens in package
// threadstate. When a user talks to the bridge outside a thread, each
// engine's continuation handle is remembered against the room and that
// user, and "start fresh" wipes exactly that user's tokens in that room.
//
// The store follows the same rules as the other scope stores: one durable
// JSON file, one transaction per mutation, lazy entry creation, and
// bottom-up pruning so emptied senders and rooms never linger on disk.
package chatsessions
