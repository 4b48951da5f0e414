package threadsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiringEmpty(t *testing.T) {
	cache := NewExpiring[string]()

	value, ok := cache.Get()

	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestExpiringSetGet(t *testing.T) {
	cache := NewExpiring[string]()

	cache.Set("token", time.Minute)

	value, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "token", value)
}

func TestExpiringLapses(t *testing.T) {
	cache := NewExpiring[string]()

	cache.Set("token", 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestExpiringReset(t *testing.T) {
	cache := NewExpiring[int]()

	cache.Set(42, time.Minute)
	cache.Reset()

	value, ok := cache.Get()
	assert.False(t, ok)
	assert.Zero(t, value)
}

func TestExpiringLastSetWins(t *testing.T) {
	cache := NewExpiring[string]()

	cache.Set("first", time.Minute)
	cache.Set("second", time.Minute)

	value, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}
