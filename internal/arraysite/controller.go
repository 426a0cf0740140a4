// Package arraysite implements the two call-site kinds that drive
// arraystore: the fixed-arity literal-array site and the dynamic-arity
// incremental builder, both sharing one specialization controller state
// machine.
package arraysite

import (
	"sync/atomic"

	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
)

// TransitionFunc is called whenever a controller moves to a new shape. It is
// optional (nil disables tracing entirely) and must be cheap and
// non-reentrant — see internal/arraytrace for the production implementation.
type TransitionFunc func(site uuid.UUID, from, to arraystore.Shape)

// Controller is the shared state machine behind both LiteralSite and
// Builder: Uninitialised -> {Int, Long, Double, Empty} -> Object, absorbing,
// monotonic, never reversing. "Uninitialised" is represented
// as a nil *shape pointer would be, but Go interfaces make a sentinel
// cleaner: we use ShapeEmpty plus an explicit initialized flag, since Empty
// itself is a real, distinct, re-specializable state ("Empty -> any on
// first append") rather than merely "no observations yet".
type Controller struct {
	id          uuid.UUID
	state       atomic.Value // stores arraystore.Shape
	initialized atomic.Bool
	onTransit   TransitionFunc
}

// NewController returns a fresh, uninitialised controller identified by id.
// onTransit may be nil.
func NewController(id uuid.UUID, onTransit TransitionFunc) *Controller {
	c := &Controller{id: id, onTransit: onTransit}
	c.state.Store(arraystore.ShapeEmpty)
	return c
}

// ID returns the controller's call-site identity.
func (c *Controller) ID() uuid.UUID { return c.id }

// Initialized reports whether the controller has committed to a shape yet.
func (c *Controller) Initialized() bool { return c.initialized.Load() }

// Shape returns the controller's current shape. Before the first
// transition, this is meaningless (Initialized() reports false); callers
// must check Initialized first.
func (c *Controller) Shape() arraystore.Shape { return c.state.Load().(arraystore.Shape) }

// transitionTo moves the controller to newShape, enforcing that the move is
// monotonic in the lattice (no transition ever reverses) and
// firing the transition hook exactly once per actual change. Re-requesting
// the controller's current shape is a no-op, not a transition.
func (c *Controller) transitionTo(newShape arraystore.Shape) {
	old := c.state.Load().(arraystore.Shape)
	first := !c.initialized.Load()
	if !first && old == newShape {
		return
	}
	if !first && !newShape.MoreGeneralThan(old) && newShape != old {
		// Int -> Long is the one case MoreGeneralThan doesn't cover
		// directly (both non-Empty, non-Object, but Long is the lattice's
		// designated generalization of Int — see arraystore.generalize).
		if !(old == arraystore.ShapeInt && newShape == arraystore.ShapeLong) {
			panic("arraysite: attempted non-monotonic specialization transition")
		}
	}
	c.state.Store(newShape)
	c.initialized.Store(true)
	if c.onTransit != nil {
		c.onTransit(c.id, old, newShape)
	}
}
