// Package cache provides the in-memory TTL cache used to rate-limit feed
// syncs and first-run bootstrapping.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a process-wide TTL cache. Entries expire individually; expired
// entries are purged in the background.
type Store struct {
	c *gocache.Cache
}

// New creates an empty cache store.
func New() *Store {
	return &Store{
		c: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Get returns the value stored under key, or false on a miss or after expiry.
func (s *Store) Get(key string) (any, bool) {
	return s.c.Get(key)
}

// Put stores value under key with the given time-to-live.
func (s *Store) Put(key string, value any, ttl time.Duration) {
	s.c.Set(key, value, ttl)
}

// Delete removes the entry stored under key, if any.
func (s *Store) Delete(key string) {
	s.c.Delete(key)
}
