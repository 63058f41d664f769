// Package dev is a development channel that dumps every message to disk
// as a timestamped JSON file instead of calling a provider.
//
// It can impersonate any channel type, so local environments can route
// email, SMS or anything else to a directory and inspect what would have
// been sent.
package dev
