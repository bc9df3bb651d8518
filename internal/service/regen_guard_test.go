package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegenerationGuardMutualExclusion(t *testing.T) {
	t.Parallel()

	guard := NewRegenerationGuard(time.Minute)

	assert.True(t, guard.TryAcquire("user-1"))
	assert.False(t, guard.TryAcquire("user-1"))
	assert.True(t, guard.InProgress("user-1"))

	// A different user is unaffected.
	assert.True(t, guard.TryAcquire("user-2"))
}

func TestRegenerationGuardRelease(t *testing.T) {
	t.Parallel()

	guard := NewRegenerationGuard(time.Minute)

	assert.True(t, guard.TryAcquire("user-1"))
	guard.Release("user-1")
	assert.False(t, guard.InProgress("user-1"))
	assert.True(t, guard.TryAcquire("user-1"))

	// Releasing an absent marker is a no-op.
	guard.Release("never-acquired")
}

func TestRegenerationGuardExpiredMarkerIsForceAcquired(t *testing.T) {
	t.Parallel()

	current := time.Now()
	guard := NewRegenerationGuard(2 * time.Minute)
	guard.now = func() time.Time { return current }

	assert.True(t, guard.TryAcquire("user-1"))
	assert.False(t, guard.TryAcquire("user-1"))

	// Just under the TTL: still held.
	current = current.Add(2*time.Minute - time.Second)
	assert.True(t, guard.InProgress("user-1"))
	assert.False(t, guard.TryAcquire("user-1"))

	// Past the TTL: the marker is abandoned and may be taken over.
	current = current.Add(2 * time.Second)
	assert.False(t, guard.InProgress("user-1"))
	assert.True(t, guard.TryAcquire("user-1"))
}

func TestRegenerationGuardConcurrentAcquire(t *testing.T) {
	t.Parallel()

	guard := NewRegenerationGuard(time.Minute)

	const goroutines = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryAcquire("user-1") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
