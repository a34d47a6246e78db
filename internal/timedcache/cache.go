// Package timedcache provides a thread safe in-memory cache whose entries
// expire after a fixed lifetime.
package timedcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	inserted time.Time
}

// Cache represents a TTL cache.
// Expired entries are never served; they are physically removed by the
// cleanup task once it is scheduled.
type Cache[K comparable, V any] struct {
	mtx      sync.RWMutex
	entries  map[K]entry[V]
	lifetime time.Duration

	cleanupStop chan struct{}
}

// New creates a new empty cache whose entries live for the given lifetime
func New[K comparable, V any](lifetime time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]entry[V]),
		lifetime: lifetime,
	}
}

// Lookup returns the value assigned to the given key and whether a live entry
// was found
func (cache *Cache[K, V]) Lookup(key K) (V, bool) {
	cache.mtx.RLock()
	defer cache.mtx.RUnlock()

	stored, ok := cache.entries[key]
	if !ok || time.Since(stored.inserted) > cache.lifetime {
		var zero V
		return zero, false
	}
	return stored.value, true
}

// Set assigns a value to the given key, restarting its lifetime
func (cache *Cache[K, V]) Set(key K, value V) {
	cache.mtx.Lock()
	defer cache.mtx.Unlock()
	cache.entries[key] = entry[V]{
		value:    value,
		inserted: time.Now(),
	}
}

// Unset removes the entry assigned to the given key
func (cache *Cache[K, V]) Unset(key K) {
	cache.mtx.Lock()
	defer cache.mtx.Unlock()
	delete(cache.entries, key)
}

// Size returns the amount of stored entries, including expired ones that were
// not cleaned up yet
func (cache *Cache[K, V]) Size() int {
	cache.mtx.RLock()
	defer cache.mtx.RUnlock()
	return len(cache.entries)
}

// ScheduleCleanupTask schedules the task that removes expired entries in a
// specific interval.
// Call StopCleanupTask as soon as the cache is no longer needed; the cache
// would not be garbage collected otherwise.
func (cache *Cache[K, V]) ScheduleCleanupTask(tick time.Duration) {
	if cache.cleanupStop != nil {
		return
	}
	cache.cleanupStop = make(chan struct{})
	go func(stop chan struct{}) {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cache.removeExpired()
			case <-stop:
				return
			}
		}
	}(cache.cleanupStop)
}

// StopCleanupTask stops the cleanup task.
// If no task is running, this is a no-op.
func (cache *Cache[K, V]) StopCleanupTask() {
	if cache.cleanupStop == nil {
		return
	}
	close(cache.cleanupStop)
	cache.cleanupStop = nil
}

func (cache *Cache[K, V]) removeExpired() {
	cache.mtx.Lock()
	defer cache.mtx.Unlock()
	for key, stored := range cache.entries {
		if time.Since(stored.inserted) > cache.lifetime {
			delete(cache.entries, key)
		}
	}
}
