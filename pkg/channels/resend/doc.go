// Package resend delivers email through the Resend API.
//
// All recipients of a message are sent in a single API call. A missing
// API key leaves the channel registered but unready.
package resend
