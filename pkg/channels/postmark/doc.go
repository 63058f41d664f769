// Package postmark delivers email through Postmark's transactional API.
//
// The channel validates sender and recipient addresses before calling the
// provider and translates Postmark error codes into the notify error
// taxonomy. Open and HTML link-click tracking are enabled on every send.
//
// A missing server token leaves the channel registered but unready, so
// development environments can wire the channel without credentials and
// rely on fallback to a dev channel instead.
//
// Usage:
//
//	ch, err := postmark.New("postmark", postmark.Config{
//	    ServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
//	    SenderEmail: "noreply@example.com",
//	})
//
// Or through the registry factory, where APIKey carries the server token
// and SecretKey the account token:
//
//	mgr, err := notify.New(cfg, notify.WithFactory("postmark", postmark.Factory("postmark")))
package postmark
