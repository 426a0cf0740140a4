package arraysite

import (
	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
)

// LiteralSite is the fixed-arity construction path: one instance per
// array-literal call site, reused across every execution of that call site.
// The host (internal/vm) evaluates all N subexpressions left-to-right before
// calling Execute, so a value that would abort specialization mid-evaluation
// in an interpreter that inlines element evaluation into the site itself is,
// here, already fully materialized by the time Execute classifies it.
type LiteralSite struct {
	ctrl *Controller
}

// NewLiteralSite creates an uninitialised literal site identified by id.
// onTransit may be nil.
func NewLiteralSite(id uuid.UUID, onTransit TransitionFunc) *LiteralSite {
	return &LiteralSite{ctrl: NewController(id, onTransit)}
}

// Controller exposes the underlying state machine, mainly for tests.
func (s *LiteralSite) Controller() *Controller { return s.ctrl }

// Execute runs one execution of the call site against the already-evaluated
// subexpression values (in left-to-right order) and returns the resulting
// store plus its logical length (always len(values)).
func (s *LiteralSite) Execute(values []arraystore.Value) (arraystore.Store, int) {
	n := len(values)

	if !s.ctrl.Initialized() {
		return s.firstExecution(values), n
	}

	shape := s.ctrl.Shape()

	switch shape {
	case arraystore.ShapeObject:
		return s.buildObject(values, 0, nil), n

	case arraystore.ShapeEmpty:
		if n == 0 {
			return arraystore.EmptySentinel(), 0
		}
		// Empty re-specializes on first non-empty use.
		return s.firstExecution(values), n

	default:
		store := arraystore.AllocatorFor(shape).New(n)
		for i, v := range values {
			if !store.Accepts(v) {
				obj := s.buildObject(values, i, store)
				return obj, n
			}
			store.Write(i, v)
		}
		return store, n
	}
}

// firstExecution performs the U -> S transition: classify every value
// jointly, install the tightest shape that accepts all of them, and build
// the store for this execution in one pass.
func (s *LiteralSite) firstExecution(values []arraystore.Value) arraystore.Store {
	shape := classifyJoint(values)
	s.ctrl.transitionTo(shape)

	if shape == arraystore.ShapeEmpty {
		return arraystore.EmptySentinel()
	}
	if shape == arraystore.ShapeObject {
		return s.buildObject(values, 0, nil)
	}

	store := arraystore.AllocatorFor(shape).New(len(values))
	for i, v := range values {
		store.Write(i, v)
	}
	return store
}

// buildObject generalizes to Object: the already-written unboxed prefix
// [0, mismatchIdx) of partial (if any) is boxed, then every value from
// mismatchIdx onward is written in order, unboxed or not — no value is
// skipped, re-evaluated, or reordered. It also records the S -> Object
// transition if the site had not already generalized.
func (s *LiteralSite) buildObject(values []arraystore.Value, mismatchIdx int, partial arraystore.Store) arraystore.Store {
	if s.ctrl.Shape() != arraystore.ShapeObject || !s.ctrl.Initialized() {
		s.ctrl.transitionTo(arraystore.ShapeObject)
	}
	obj := arraystore.NewObjectStore(len(values))
	if partial != nil && mismatchIdx > 0 {
		boxed := partial.BoxedCopyOfRange(0, mismatchIdx)
		for i, v := range boxed {
			obj.Write(i, v)
		}
	}
	for i := mismatchIdx; i < len(values); i++ {
		obj.Write(i, values[i])
	}
	return obj
}

// classifyJoint classifies a full set of literal elements jointly: every
// value must agree on Int, or every value must be numeric and fit Long/
// Double, or the literal falls back to Object.
func classifyJoint(values []arraystore.Value) arraystore.Shape {
	if len(values) == 0 {
		return arraystore.ShapeEmpty
	}
	allInt32, allInt64, allNumeric := true, true, true
	for _, v := range values {
		switch arraystore.Classify(v) {
		case arraystore.KindInt32:
		case arraystore.KindInt64:
			allInt32 = false
		case arraystore.KindFloat:
			allInt32, allInt64 = false, false
		default:
			allInt32, allInt64, allNumeric = false, false, false
		}
	}
	switch {
	case allInt32:
		return arraystore.ShapeInt
	case allInt64:
		return arraystore.ShapeLong
	case allNumeric:
		return arraystore.ShapeDouble
	default:
		return arraystore.ShapeObject
	}
}
