package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLimiterAt(start time.Time) (*SlidingWindow, *time.Time) {
	clock := start
	limiter := New()
	limiter.now = func() time.Time { return clock }
	return limiter, &clock
}

func TestAllowEnforcesLimit(t *testing.T) {
	limiter, _ := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("1.2.3.4", ActionOrderCreation), "request %d should pass", i+1)
	}
	assert.False(t, limiter.Allow("1.2.3.4", ActionOrderCreation), "sixth request must be rejected")
}

func TestAllowIsolatesKeysAndActions(t *testing.T) {
	limiter, _ := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		limiter.Allow("1.2.3.4", ActionOrderCreation)
	}
	assert.False(t, limiter.Allow("1.2.3.4", ActionOrderCreation))
	assert.True(t, limiter.Allow("5.6.7.8", ActionOrderCreation), "another actor has its own window")
	assert.True(t, limiter.Allow("1.2.3.4", ActionCallback), "another action has its own window")
}

func TestAllowWindowSlides(t *testing.T) {
	limiter, clock := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		limiter.Allow("1.2.3.4", ActionOrderCreation)
	}
	assert.False(t, limiter.Allow("1.2.3.4", ActionOrderCreation))

	*clock = clock.Add(5*time.Minute + time.Second)
	assert.True(t, limiter.Allow("1.2.3.4", ActionOrderCreation), "old requests fall out of the window")
}

func TestAllowUnknownAction(t *testing.T) {
	limiter, _ := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 1000; i++ {
		assert.True(t, limiter.Allow("1.2.3.4", "unconfigured"))
	}
}

func TestRiskScore(t *testing.T) {
	limiter, _ := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, RiskLow, limiter.RiskScore("1.2.3.4"))

	for i := 0; i < 8; i++ {
		limiter.Allow("1.2.3.4", ActionCallback)
	}
	assert.Equal(t, RiskLow, limiter.RiskScore("1.2.3.4"))

	for i := 0; i < 5; i++ {
		limiter.Allow("1.2.3.4", ActionAdmin)
	}
	assert.Equal(t, RiskHigh, limiter.RiskScore("1.2.3.4"), "volume across actions counts")
	assert.Equal(t, RiskLow, limiter.RiskScore("5.6.7.8"))
}

func TestRiskScoreDecays(t *testing.T) {
	limiter, clock := newLimiterAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 12; i++ {
		limiter.Allow("1.2.3.4", ActionCallback)
	}
	assert.Equal(t, RiskHigh, limiter.RiskScore("1.2.3.4"))

	*clock = clock.Add(riskWindow + time.Second)
	assert.Equal(t, RiskLow, limiter.RiskScore("1.2.3.4"))
}
