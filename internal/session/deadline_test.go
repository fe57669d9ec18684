package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.Now()
	}
	return ch
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestDeadline(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	total := NewDeadline(clock, 30*time.Minute)
	waiting := total.Shorten(5 * time.Minute)

	assert.Equal(t, 30*time.Minute, total.Remaining())
	assert.Equal(t, 25*time.Minute, waiting.Remaining())

	clock.advance(25 * time.Minute)
	assert.True(t, waiting.Expired())
	assert.False(t, total.Expired())
	assert.Equal(t, 5*time.Minute, total.Remaining())

	clock.advance(time.Hour)
	assert.Equal(t, time.Duration(0), total.Remaining())
	assert.True(t, total.Expired())

	select {
	case <-total.Done():
	default:
		t.Fatal("expired deadline must fire at once")
	}
}
