// Package arraytrace provides optional, injectable instrumentation for the
// specialization controller: structured transition logging (via
// go.uber.org/zap, in the style edirooss-zmux-server's redis/client.go wires
// a *zap.Logger through its constructors) plus a per-site transition
// counter, keyed by a github.com/google/uuid site identity.
//
// Nothing in internal/arraystore or internal/arraysite imports this package
// — a Tracer is injected as a plain func value, so the engine's hot path
// never pays for logging it doesn't need, and tests can supply a bare
// counting stub instead of a real logger.
package arraytrace

import (
	"sync"
	"sync/atomic"

	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transition is one observed specialization-controller state change.
type Transition struct {
	Site uuid.UUID
	From arraystore.Shape
	To   arraystore.Shape
}

// Hook is called by a Controller on every transition. It must return
// quickly and must not itself trigger another transition on the same site.
type Hook func(Transition)

// Tracer logs every transition it observes through a *zap.Logger and keeps
// a running count per site, so tests can assert "exactly one transition
// happened" even after a site has executed hundreds of times.
type Tracer struct {
	log    *zap.Logger
	counts sync.Map // uuid.UUID -> *int64
}

// New returns a Tracer that logs through log. Passing zap.NewNop() disables
// the logging side while keeping the counter.
func New(log *zap.Logger) *Tracer {
	return &Tracer{log: log}
}

// Hook returns the Hook function to inject into a Controller.
func (t *Tracer) Hook() Hook {
	return func(tr Transition) {
		v, _ := t.counts.LoadOrStore(tr.Site, new(int64))
		atomic.AddInt64(v.(*int64), 1)
		t.log.Info("array site specialization transition",
			zap.String("site", tr.Site.String()),
			zap.String("from", tr.From.String()),
			zap.String("to", tr.To.String()),
		)
	}
}

// Count returns the number of transitions observed for site so far.
func (t *Tracer) Count(site uuid.UUID) int64 {
	v, ok := t.counts.Load(site)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v.(*int64))
}

// NewSiteID mints a fresh call-site identity. Called once per call site at
// compile/registration time, never per execution.
func NewSiteID() uuid.UUID { return uuid.New() }
