package domain

import "time"

// RateLimitWindow is the persisted state of a fixed-window counter.
type RateLimitWindow struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"windowStart"`
}

// RateLimitDecision is the outcome of a single check.
type RateLimitDecision struct {
	Allowed   bool      `json:"allowed"`
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}
