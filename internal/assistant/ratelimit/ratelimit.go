// Package ratelimit provides the per-client sliding-window admission guard.
// It is approximate and best-effort: nothing survives a restart.
package ratelimit

import (
	"sync"
	"time"
)

// Window is the trailing period requests are counted over.
const Window = 60 * time.Second

// Limiter tracks request timestamps per client key.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	buckets map[string][]time.Time

	now func() time.Time // replaceable in tests
}

func New(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		buckets: map[string][]time.Time{},
		now:     time.Now,
	}
}

// Admit purges stale timestamps for the client, then admits the request if
// the bucket is under the ceiling. A rejected request is not counted against
// the client.
func (l *Limiter) Admit(clientKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket := l.buckets[clientKey][:0]
	for _, t := range l.buckets[clientKey] {
		if now.Sub(t) < Window {
			bucket = append(bucket, t)
		}
	}

	if len(bucket) >= l.limit {
		l.buckets[clientKey] = bucket
		return false
	}

	l.buckets[clientKey] = append(bucket, now)
	return true
}
