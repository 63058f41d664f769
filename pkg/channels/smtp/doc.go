// Package smtp delivers email through a plain SMTP relay using gopkg.in/mail.v2.
//
// The dial-and-send call blocks without accepting a context, so Send runs
// it in a goroutine and abandons it when the caller's context is
// cancelled. Config.Timeout bounds the underlying dial so an abandoned
// attempt cannot linger past it.
package smtp
