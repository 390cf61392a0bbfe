// Package session holds per-conversation state: an in-process store with
// idle expiry for live Session objects, and a Redis-backed transcript
// repository that mirrors the conversation for durability.
package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

// Store keeps live sessions keyed by session id. Sessions untouched for the
// idle TTL are swept by the cache janitor; each access refreshes the TTL.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewStore(idleTTL time.Duration) *Store {
	cleanup := idleTTL / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{cache: cache.New(idleTTL, cleanup)}
}

// GetOrCreate returns the session for the id, creating it lazily on first
// contact; created reports which happened so the caller can rehydrate a
// fresh session. The store mutex makes concurrent first contacts for the
// same id converge on a single Session object.
func (s *Store) GetOrCreate(id string) (sess *model.Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(id); found {
		sess = x.(*model.Session)
		s.cache.Set(id, sess, cache.DefaultExpiration) // touch
		return sess, false
	}
	sess = model.NewSession(id)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Get returns the session if it exists, without creating one.
func (s *Store) Get(id string) (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(id); found {
		return x.(*model.Session), true
	}
	return nil, false
}

// Len reports the number of live (unexpired) sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
