// Package dedupe provides webhook event deduplication using a time-based
// cache to drop redelivered events within a configurable window.
package dedupe
