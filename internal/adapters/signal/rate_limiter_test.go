package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewConnectLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("2"))
	assert.True(t, rl.Allow("2"))
	assert.False(t, rl.Allow("2"))
	assert.True(t, rl.Allow("3"), "other users have their own window")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("2"))
}

func TestConnectLimiterDisabled(t *testing.T) {
	var nilLimiter *ConnectLimiter
	assert.True(t, nilLimiter.Allow("2"))

	rl := NewConnectLimiter(0, time.Second)
	for range 100 {
		assert.True(t, rl.Allow("2"))
	}
}
