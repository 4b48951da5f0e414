package ratelimit

import (
	"sync"
	"time"
)

// Actions with configured limits.
const (
	ActionCallback      = "callback"
	ActionAdmin         = "admin"
	ActionOrderCreation = "order_creation"
)

const (
	riskWindow       = time.Hour
	riskMaxPerWindow = 10

	RiskHigh = 0.9
	RiskLow  = 0.1
)

type Limit struct {
	Max    int
	Window time.Duration
}

func defaultLimits() map[string]Limit {
	return map[string]Limit{
		ActionOrderCreation: {Max: 5, Window: 5 * time.Minute},
		ActionCallback:      {Max: 20, Window: 5 * time.Minute},
		ActionAdmin:         {Max: 50, Window: 5 * time.Minute},
	}
}

// SlidingWindow counts requests per actor+action over a moving window.
// An unknown action is always allowed.
type SlidingWindow struct {
	requests map[string][]time.Time
	limits   map[string]Limit
	now      func() time.Time
	mux      *sync.Mutex
}

func New() *SlidingWindow {
	return NewWithLimits(defaultLimits())
}

func NewWithLimits(limits map[string]Limit) *SlidingWindow {
	return &SlidingWindow{
		requests: make(map[string][]time.Time),
		limits:   limits,
		now:      time.Now,
		mux:      &sync.Mutex{},
	}
}

func (l *SlidingWindow) Allow(key, action string) bool {
	limit, ok := l.limits[action]
	if !ok {
		return true
	}

	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()
	rateKey := key + ":" + action
	recent := pruneBefore(l.requests[rateKey], now.Add(-limit.Window))
	if len(recent) >= limit.Max {
		l.requests[rateKey] = recent
		return false
	}
	l.requests[rateKey] = append(recent, now)
	return true
}

// RiskScore grades an actor by total request volume over the last hour,
// across all actions. It replaces the old per-IP history map with a score
// derived from the same windows Allow already maintains.
func (l *SlidingWindow) RiskScore(key string) float64 {
	l.mux.Lock()
	defer l.mux.Unlock()

	cutoff := l.now().Add(-riskWindow)
	total := 0
	prefix := key + ":"
	for rateKey, timestamps := range l.requests {
		if len(rateKey) < len(prefix) || rateKey[:len(prefix)] != prefix {
			continue
		}
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				total++
			}
		}
	}
	if total > riskMaxPerWindow {
		return RiskHigh
	}
	return RiskLow
}

func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
