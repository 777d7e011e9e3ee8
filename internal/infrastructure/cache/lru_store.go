package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ContentRanker/internal/ports"
)

// DefaultLRUSize bounds the in-process store when no size is configured.
const DefaultLRUSize = 10000

// LRUStore keeps recent fingerprints in process memory. It is safe for
// concurrent use and forgets everything on restart.
type LRUStore struct {
	cache *expirable.LRU[string, time.Time]
}

var _ ports.FingerprintStore = (*LRUStore)(nil)

// NewLRUStore builds a store of at most size entries; ttl <= 0 disables expiry.
func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	if size <= 0 {
		size = DefaultLRUSize
	}
	return &LRUStore{cache: expirable.NewLRU[string, time.Time](size, nil, max(ttl, 0))}
}

// Seen never fails.
func (s *LRUStore) Seen(_ context.Context, fingerprints []string) (map[string]bool, error) {
	result := make(map[string]bool, len(fingerprints))
	for _, fp := range fingerprints {
		if s.cache.Contains(fp) {
			result[fp] = true
		}
	}
	return result, nil
}

// Remember never fails.
func (s *LRUStore) Remember(_ context.Context, fingerprints []string) error {
	now := time.Now()
	for _, fp := range fingerprints {
		if fp == "" {
			continue
		}
		s.cache.Add(fp, now)
	}
	return nil
}

// Len reports how many fingerprints are currently held.
func (s *LRUStore) Len() int {
	return s.cache.Len()
}
