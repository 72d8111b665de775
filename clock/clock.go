// Package clock supplies the current tick to the club engine.
package clock

import (
	"sync/atomic"

	"github.com/xraph/clubhouse/types"
)

// Clock reports the host's current tick.
type Clock interface {
	Now() types.Tick
}

// Advancer is a Clock the engine may step forward itself.
type Advancer interface {
	Clock
	Advance() types.Tick
}

// Manual is a clock moved only by its owner. It is safe for concurrent use.
type Manual struct {
	now atomic.Uint64
}

var _ Advancer = (*Manual)(nil)

// NewManual returns a clock positioned at start.
func NewManual(start types.Tick) *Manual {
	m := &Manual{}
	m.now.Store(uint64(start))
	return m
}

func (m *Manual) Now() types.Tick { return types.Tick(m.now.Load()) }

// Set moves the clock to t.
func (m *Manual) Set(t types.Tick) { m.now.Store(uint64(t)) }

// Advance moves the clock forward one tick and returns the new tick.
func (m *Manual) Advance() types.Tick { return types.Tick(m.now.Add(1)) }
