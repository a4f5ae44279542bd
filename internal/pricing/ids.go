package pricing

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Clock supplies the current time to the engine.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// IDGenerator produces quote identifiers. Implementations must be safe for
// concurrent use and never return the same ID twice within a process.
type IDGenerator interface {
	NewID(now time.Time) string
}

// SequenceIDGenerator builds IDs from a prefix, the creation time in unix
// milliseconds, and a process-wide counter: Q-1718035200000-42.
type SequenceIDGenerator struct {
	prefix string
	seq    atomic.Uint64
}

// NewSequenceIDGenerator returns a generator using prefix (e.g. "Q").
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// NewID implements IDGenerator.
func (g *SequenceIDGenerator) NewID(now time.Time) string {
	n := g.seq.Add(1)
	return fmt.Sprintf("%s-%d-%d", g.prefix, now.UnixMilli(), n)
}
