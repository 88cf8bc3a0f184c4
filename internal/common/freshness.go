// Package common provides shared utilities for Finlet
package common

import "time"

// Freshness TTLs for cached data
const (
	FreshnessQuote     = 60 * time.Second // one polling interval
	FreshnessPortfolio = 5 * time.Minute  // matches the silent session refresh
	FreshnessBrief     = 6 * time.Hour    // daily market brief
	FreshnessDetails   = 24 * time.Hour   // stock metadata changes slowly
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
