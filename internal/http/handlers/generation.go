package handlers

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tbourn/welder-tracker/internal/events"
)

// Generation counts store changes observed by this process. The epoch keeps
// tags from different processes apart, since the counter restarts at zero.
type Generation struct {
	epoch string
	n     atomic.Uint64
}

// NewGeneration returns a counter with a fresh epoch.
func NewGeneration() *Generation {
	return &Generation{epoch: uuid.NewString()[:8]}
}

// Bump records one change.
func (g *Generation) Bump() { g.n.Add(1) }

// Tag identifies the current generation.
func (g *Generation) Tag() string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%s.%d", g.epoch, g.n.Load())
}

// Watch bumps the change generation on every RecordsChanged event.
func (h *Handlers) Watch(bus *events.Dispatcher) events.Subscription {
	return bus.Subscribe(events.RecordsChanged, func(events.Event) { h.Changes.Bump() })
}
