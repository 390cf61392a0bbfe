package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate(t *testing.T) {
	s := NewStore(30 * time.Minute)

	a, created := s.GetOrCreate("s1")
	require.NotNil(t, a)
	assert.True(t, created)
	assert.Equal(t, "s1", a.ID)

	b, created := s.GetOrCreate("s1")
	assert.Same(t, a, b)
	assert.False(t, created)

	c, _ := s.GetOrCreate("s2")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, s.Len())
}

func TestGetWithoutCreate(t *testing.T) {
	s := NewStore(30 * time.Minute)

	_, found := s.Get("missing")
	assert.False(t, found)

	s.GetOrCreate("s1")
	sess, found := s.Get("s1")
	assert.True(t, found)
	assert.Equal(t, "s1", sess.ID)
}

// Concurrent first contacts for one session id must converge on a single
// Session object.
func TestGetOrCreateConcurrent(t *testing.T) {
	s := NewStore(30 * time.Minute)

	const n = 32
	out := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], _ = s.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, out[0], out[i])
	}
	assert.Equal(t, 1, s.Len())
}
