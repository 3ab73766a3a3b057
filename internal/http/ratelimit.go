package http

import (
	"math"
	"sync"
	"time"
)

const (
	limitWindow  = time.Minute
	sweepEvery   = 5 * time.Minute
	idleAfter    = 10 * time.Minute
	defaultLimit = 60
)

// rateLimiter counts mutating requests per client in fixed one-minute
// windows. A window opens on the client's first request and closes a
// minute later regardless of traffic.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	opened time.Time
	count  int
	seen   time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	rl := &rateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

// sweep forgets clients idle for longer than idleAfter and reports how
// many were dropped.
func (rl *rateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleAfter)
	n := 0
	for ip, w := range rl.windows {
		if w.seen.Before(cutoff) {
			delete(rl.windows, ip)
			n++
		}
	}
	return n
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow records one request from clientIP. When the window is exhausted it
// returns false and the time left until the window closes.
func (rl *rateLimiter) allow(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.opened) >= limitWindow {
		w = &window{opened: now}
		rl.windows[clientIP] = w
	}
	w.seen = now
	if w.count >= rl.limit {
		return false, w.opened.Add(limitWindow).Sub(now)
	}
	w.count++
	return true, 0
}

// retryAfterSeconds renders a wait as a whole number of seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
