// Package ratelimit provides the cooldown stores used to throttle
// guestbook submissions. A store answers one question: is this client
// key allowed to submit again yet. The memory store works for a single
// process; the gorm-backed store shares state between instances.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store decides whether a client key may perform another request.
// A denied request must not reset the cooldown.
type Store interface {
	Allow(key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps a per-key limiter in memory. State is lost on
// restart and not shared between processes.
type MemoryStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cooldown time.Duration
}

func NewMemoryStore(cooldown time.Duration) *MemoryStore {
	s := &MemoryStore{
		visitors: make(map[string]*visitor),
		cooldown: cooldown,
	}

	go s.cleanupVisitors(10*cooldown, time.Minute)

	return s
}

func (s *MemoryStore) Allow(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[key]
	if !exists {
		// Burst of 1 means one request per cooldown window, measured
		// from the previous accepted request.
		v = &visitor{limiter: rate.NewLimiter(rate.Every(s.cooldown), 1)}
		s.visitors[key] = v
	}

	v.lastSeen = time.Now()

	return v.limiter.Allow(), nil
}

func (s *MemoryStore) cleanupVisitors(ttl, interval time.Duration) {
	for {
		time.Sleep(interval)

		s.mu.Lock()
		for key, v := range s.visitors {
			if time.Since(v.lastSeen) > ttl {
				delete(s.visitors, key)
			}
		}
		s.mu.Unlock()
	}
}
