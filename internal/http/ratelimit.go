package http

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// limitPolicy is a fixed-window request budget per client IP.
type limitPolicy struct {
	name   string
	limit  int
	window time.Duration
}

var (
	mutationPolicy = limitPolicy{name: "mutation", limit: 60, window: time.Minute}
	// File and sheet imports are counted apart from ordinary edits.
	importPolicy = limitPolicy{name: "import", limit: 10, window: time.Minute}
)

// policyFor returns the budget r draws from. Reads are not limited.
func policyFor(r *http.Request) (limitPolicy, bool) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		return limitPolicy{}, false
	}
	if strings.HasPrefix(r.URL.Path, "/transactions/import") {
		return importPolicy, true
	}
	return mutationPolicy, true
}

type limitWindow struct {
	start time.Time
	count int
}

// rateLimiter keeps one window per policy and client.
type rateLimiter struct {
	mu       sync.Mutex
	now      func() time.Time
	windows  map[limitKey]*limitWindow
	done     chan struct{}
	stopOnce sync.Once
}

type limitKey struct {
	policy   string
	clientIP string
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		now:     time.Now,
		windows: make(map[limitKey]*limitWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop(5*time.Minute, 10*time.Minute)
	return rl
}

func (rl *rateLimiter) sweepLoop(every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep(maxAge)
		case <-rl.done:
			return
		}
	}
}

// sweep drops windows that started more than maxAge ago.
func (rl *rateLimiter) sweep(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxAge)
	for k, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, k)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// activeClients counts distinct client IPs with a live window.
func (rl *rateLimiter) activeClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	seen := make(map[string]struct{}, len(rl.windows))
	for k := range rl.windows {
		seen[k.clientIP] = struct{}{}
	}
	return len(seen)
}

// allow spends one request from the client's budget under p. When the
// budget is exhausted it reports how long until the window resets.
func (rl *rateLimiter) allow(p limitPolicy, clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := limitKey{policy: p.name, clientIP: clientIP}
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= p.window {
		rl.windows[key] = &limitWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= p.limit {
		return false, w.start.Add(p.window).Sub(now)
	}
	w.count++
	return true, 0
}

// retryAfterSeconds rounds up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
