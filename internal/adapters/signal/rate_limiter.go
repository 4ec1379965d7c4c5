package signal

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// ConnectLimiter throttles websocket connects per user over a sliding
// window. It stops reconnect loops between two tabs of the same producer
// that keep evicting each other.
type ConnectLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewConnectLimiter(limit int, interval time.Duration) *ConnectLimiter {
	return &ConnectLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow records an attempt by uid and reports whether it is within limits.
// A non-positive limit disables throttling.
func (rl *ConnectLimiter) Allow(uid domain.UserID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	fresh := lo.Filter(rl.history[uid], func(t time.Time, _ int) bool {
		return t.After(windowStart)
	})
	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}
	rl.history[uid] = append(fresh, now)
	return true
}
