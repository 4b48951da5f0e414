package threadsafe

import (
	"sync"
	"time"
)

// Expiring holds a value that lapses after a TTL. The cache is advisory:
// concurrent callers observing an expired value may all refresh it, and the
// last Set wins. The lock is never held across a caller's refresh work.
type Expiring[T any] struct {
	value  T
	expiry time.Time
	mux    *sync.Mutex
}

func NewExpiring[T any]() *Expiring[T] {
	return &Expiring[T]{
		mux: &sync.Mutex{},
	}
}

func (e *Expiring[T]) Get() (T, bool) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.expiry.IsZero() || !time.Now().Before(e.expiry) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (e *Expiring[T]) Set(value T, ttl time.Duration) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.value = value
	e.expiry = time.Now().Add(ttl)
}

func (e *Expiring[T]) Reset() {
	e.mux.Lock()
	defer e.mux.Unlock()
	var zero T
	e.value = zero
	e.expiry = time.Time{}
}
