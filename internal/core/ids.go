package core

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time. Stores take one so tests can pin "today".
type Clock func() time.Time

// IDGenerator issues time-derived identifiers. Values are Unix
// milliseconds, bumped forward when two calls land on the same
// millisecond, so an id is never issued twice by one generator.
type IDGenerator struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

func NewIDGenerator(now Clock) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Stamp returns the next monotonic millisecond value.
func (g *IDGenerator) Stamp() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

// NewID returns an id for a manually added record.
func (g *IDGenerator) NewID() string {
	return strconv.FormatInt(g.Stamp(), 10)
}

// BatchID returns the id of row index within an import batch stamped at ts.
func BatchID(ts int64, index int) string {
	return strconv.FormatInt(ts, 10) + "-" + strconv.Itoa(index)
}
