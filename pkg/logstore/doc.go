// Package logstore persists per-channel delivery outcomes and serves the
// queries a dashboard needs, without ever sitting on the send path: the
// Recorder subscribes to the manager's Sent/Failed events and writes
// records asynchronously from the sender's perspective.
//
//	store := logstore.NewMemoryStore()
//	logstore.NewRecorder(store).Attach(mgr.Events())
//
// Two stores ship: MemoryStore for development and tests, and PGStore on
// pgx for production. Apply logstore.Schema before using PGStore.
package logstore
