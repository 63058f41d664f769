// Package config provides a type-safe, generic way to load application
// configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`
// to deliver a small API that:
//
//   - Loads the default `.env` file once per process before the first
//     parse (a missing file is not an error).
//   - Parses the environment into any Go struct using field tags.
//   - Exposes a helper that panics on failure (`MustLoad`) for
//     configurations the application cannot start without.
//
// # Usage
//
// Create a struct describing your configuration and annotate its fields
// with `env` tags:
//
//	type PostmarkConfig struct {
//	    ServerToken string `env:"POSTMARK_SERVER_TOKEN,required"`
//	    SenderEmail string `env:"SENDER_EMAIL,required"`
//	}
//
//	var cfg PostmarkConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// # Error Handling
//
// The package defines sentinel errors that can be compared with
// `errors.Is`:
//
//   - `ErrParsingConfig` – failed to parse env vars into struct.
//   - `ErrNilPointer`    – nil pointer passed to `Load`/`MustLoad`.
package config
