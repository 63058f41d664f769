// Package telegram delivers messages through the Telegram Bot API.
//
// Telegram is not one of the well-known channel types; the package shows
// that custom types are first-class citizens in the registry. Addresses
// carry chat IDs, one sendMessage call per chat. A missing bot token
// leaves the channel registered but unready.
package telegram
