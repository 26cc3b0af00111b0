// rate_limiter.go - Token-bucket rate limiting for inbound gossip.
package main

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled on a fixed period.
type RateLimiter struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	lastRefill   time.Time
	refillPeriod time.Duration
}

// NewRateLimiter creates a bucket holding maxTokens, regaining one token
// per refillPeriod.
func NewRateLimiter(maxTokens int, refillPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		lastRefill:   time.Now(),
		refillPeriod: refillPeriod,
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refill := int(now.Sub(rl.lastRefill) / rl.refillPeriod)
	if refill > 0 {
		rl.tokens += refill
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Tokens returns the tokens currently available.
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens
}

// PeerRateLimiter keeps one bucket per peer. It satisfies the p2p limiter
// contract.
type PeerRateLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*RateLimiter
	maxTokens    int
	refillPeriod time.Duration
}

// NewPeerRateLimiter creates a per-peer limiter factory.
func NewPeerRateLimiter(maxTokens int, refillPeriod time.Duration) *PeerRateLimiter {
	return &PeerRateLimiter{
		limiters:     make(map[string]*RateLimiter),
		maxTokens:    maxTokens,
		refillPeriod: refillPeriod,
	}
}

// Allow consumes a token from peerID's bucket, creating it on first use.
func (prl *PeerRateLimiter) Allow(peerID string) bool {
	prl.mu.Lock()
	limiter, ok := prl.limiters[peerID]
	if !ok {
		limiter = NewRateLimiter(prl.maxTokens, prl.refillPeriod)
		prl.limiters[peerID] = limiter
	}
	prl.mu.Unlock()

	return limiter.Allow()
}
