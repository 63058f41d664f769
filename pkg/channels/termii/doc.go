// Package termii delivers SMS through the Termii HTTP API.
//
// One API call is made per recipient phone number. The sender ID is
// required at construction; the per-message From field overrides it. A
// missing API key leaves the channel registered but unready.
package termii
