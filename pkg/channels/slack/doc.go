// Package slack posts messages to a Slack incoming webhook.
//
// Each address in the message targets one Slack channel; an empty address
// list posts to the webhook's default channel. Non-200 webhook responses
// become provider errors carrying the HTTP status code as a detail.
package slack
