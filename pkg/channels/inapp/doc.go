// Package inapp delivers notifications into a per-user inbox instead of
// calling an external provider.
//
// Addresses carry user IDs; Send writes one inbox Item per target user
// and reports the delivered status immediately since persistence is the
// delivery. The Inbox interface abstracts the backing store; MemoryInbox
// is the bundled implementation with listing, read marking and unread
// counting for building notification centers.
package inapp
