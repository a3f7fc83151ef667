// Package dedup tracks absolute URLs that have already been probed within a
// scan session. The in-memory set is the session's source of truth; when a
// Redis client is supplied the set is mirrored there best-effort so that
// parallel tooling can observe scan coverage.
package dedup

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Store is a concurrency-safe set of probed URLs.
type Store struct {
	mu       sync.RWMutex
	seen     map[string]struct{}
	ordered  []string
	redisKey string
	rdb      *redis.Client
}

// NewStore creates a Store. rdb may be nil, in which case the store is
// purely in-memory.
func NewStore(rdb *redis.Client, redisKey string) *Store {
	return &Store{
		seen:     make(map[string]struct{}),
		redisKey: redisKey,
		rdb:      rdb,
	}
}

// Add records a URL. It returns true when the URL was not seen before.
func (s *Store) Add(ctx context.Context, url string) bool {
	s.mu.Lock()
	if _, ok := s.seen[url]; ok {
		s.mu.Unlock()
		return false
	}
	s.seen[url] = struct{}{}
	s.ordered = append(s.ordered, url)
	s.mu.Unlock()

	if s.rdb != nil {
		if err := s.rdb.SAdd(ctx, s.redisKey, url).Err(); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Failed to mirror URL to Redis")
		}
	}
	return true
}

// Has reports whether the URL was already recorded.
func (s *Store) Has(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of recorded URLs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// URLs returns a copy of all recorded URLs in insertion order.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}
