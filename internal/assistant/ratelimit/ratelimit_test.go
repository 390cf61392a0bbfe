package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmitUnderCeiling(t *testing.T) {
	l := New(3)
	assert.True(t, l.Admit("1.2.3.4"))
	assert.True(t, l.Admit("1.2.3.4"))
	assert.True(t, l.Admit("1.2.3.4"))
	assert.False(t, l.Admit("1.2.3.4"))

	// other clients are unaffected
	assert.True(t, l.Admit("5.6.7.8"))
}

func TestWindowSlides(t *testing.T) {
	now := time.Now()
	l := New(2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Admit("c"))
	assert.True(t, l.Admit("c"))
	assert.False(t, l.Admit("c"))

	// a minute later the bucket has drained
	l.now = func() time.Time { return now.Add(Window + time.Second) }
	assert.True(t, l.Admit("c"))
}

// A rejected request must not extend the client's penalty.
func TestRejectionNotCounted(t *testing.T) {
	now := time.Now()
	l := New(1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Admit("c"))
	for i := 0; i < 10; i++ {
		assert.False(t, l.Admit("c"))
	}

	l.now = func() time.Time { return now.Add(Window + time.Millisecond) }
	assert.True(t, l.Admit("c"))
}
