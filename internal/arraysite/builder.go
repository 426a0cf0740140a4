package arraysite

import (
	"arrayspec/internal/arrayconfig"
	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
)

type buildPhase int

const (
	phaseUninitialised buildPhase = iota
	phaseSpecialized
)

// Builder is the dynamic-arity incremental construction path.
// Each operation takes the in-flight store and its logical length as
// explicit arguments rather than the Builder owning them between calls —
// only the call-site-level state (the shared Controller, the learned
// expected length, and one build's uninitialised-phase bookkeeping) lives
// on the Builder itself.
type Builder struct {
	ctrl *Controller
	cfg  arrayconfig.Config

	expected int // learned on first Finish; StartLength above this de-specialises

	phase                                      buildPhase
	couldUseInt, couldUseLong, couldUseDouble bool

	// Cross-type append bookkeeping for the Object variant: records which
	// source shapes the Object shape has appended from (or generalized away
	// from), reported through Seen. AppendArray does not branch on these
	// flags: every append onto an Object store from another shape boxes the
	// source through BoxedCopyOfRange.
	seenInt, seenLong, seenDouble, seenObject bool
}

// NewBuilder returns a fresh, uninitialised builder for one call site.
// onTransit may be nil.
func NewBuilder(id uuid.UUID, cfg arrayconfig.Config, onTransit TransitionFunc) *Builder {
	return &Builder{ctrl: NewController(id, onTransit), cfg: cfg}
}

// Controller exposes the underlying state machine, mainly for tests.
func (b *Builder) Controller() *Controller { return b.ctrl }

// Seen reports which primitive source shapes the Object variant has
// appended from so far at this site.
func (b *Builder) Seen() (seenInt, seenLong, seenDouble, seenObject bool) {
	return b.seenInt, b.seenLong, b.seenDouble, b.seenObject
}

// Start begins a new build with no length hint; equivalent to StartLength(0).
func (b *Builder) Start() (arraystore.Store, int) {
	return b.StartLength(0)
}

// StartLength begins a new build, hinting that the finished array will hold
// length elements.
func (b *Builder) StartLength(length int) (arraystore.Store, int) {
	if b.ctrl.Initialized() {
		shape := b.ctrl.Shape()
		if shape == arraystore.ShapeObject {
			b.phase = phaseSpecialized
			cap := b.expected
			if length > cap {
				cap = length
			}
			return arraystore.NewObjectStore(cap), 0
		}
		if shape != arraystore.ShapeEmpty && length <= b.expected {
			b.phase = phaseSpecialized
			return arraystore.AllocatorFor(shape).New(b.expected), 0
		}
		// Either the site is still Empty, or length overflows the learned
		// expected size: de-specialise for this build only. The controller's
		// own shape commitment is untouched here — only
		// the per-build expected-length pinning is abandoned.
	}

	b.phase = phaseUninitialised
	b.couldUseInt, b.couldUseLong, b.couldUseDouble = true, true, true
	capHint := b.cfg.ArrayUninitializedSize
	if length > capHint {
		capHint = length
	}
	return arraystore.NewObjectStore(capHint), 0
}

// Ensure grows store so it can hold at least minCapacity elements,
// preserving the first length of them. Returns store unchanged if it
// already has enough room (identity when minCapacity <= store.Capacity()).
func (b *Builder) Ensure(store arraystore.Store, length, minCapacity int) arraystore.Store {
	if store.Capacity() >= minCapacity {
		return store
	}
	grown := store.Allocator().New(b.cfg.Capacity(store.Capacity(), minCapacity))
	store.CopyContents(0, grown, 0, length)
	return grown
}

// AppendValue appends v at position length, widening the store if needed,
// and returns the (possibly new) store and its new length.
//
// Double's asymmetry with the literal site is intentional: LiteralSite
// promotes integers into Double via arraystore.ToDouble, but Builder's
// Double phase accepts only values that already classify as double-kind —
// an int appended here generalizes straight to Object rather than being
// coerced.
func (b *Builder) AppendValue(store arraystore.Store, length int, v arraystore.Value) (arraystore.Store, int) {
	if b.phase == phaseUninitialised {
		b.observe(v)
		store = b.Ensure(store, length, length+1)
		store.Write(length, v)
		return store, length + 1
	}

	switch store.Shape() {
	case arraystore.ShapeEmpty:
		// First real append onto an array that specialized to Empty: pick
		// the tightest shape this value fits, the same U -> S transition
		// the literal site makes, rather than generalizing straight to
		// Object as a mismatch on an already-specialized store would.
		alloc := store.GeneralizeForValue(v)
		fresh := alloc.New(1)
		fresh.Write(0, v)
		b.ctrl.transitionTo(alloc.Shape())
		return fresh, 1
	case arraystore.ShapeDouble:
		if !arraystore.IsDouble(v) {
			return b.generalizeToObject(store, length, v)
		}
	case arraystore.ShapeObject:
		// Already maximally general; fall through to the unboxed-write path
		// below, which Ensure/Write handle identically for Object.
	default:
		if !store.Accepts(v) {
			return b.generalizeToObject(store, length, v)
		}
	}
	store = b.Ensure(store, length, length+1)
	store.Write(length, v)
	return store, length + 1
}

// AppendArray appends all otherLen elements of other (read in order, never
// skipped or reordered) onto store at position length.
func (b *Builder) AppendArray(store arraystore.Store, length int, other arraystore.Store, otherLen int) (arraystore.Store, int) {
	if otherLen == 0 {
		return store, length
	}

	if b.phase == phaseUninitialised {
		for i := 0; i < otherLen; i++ {
			store, length = b.AppendValue(store, length, other.Read(i))
		}
		return store, length
	}

	if store.Shape() == other.Shape() {
		store = b.Ensure(store, length, length+otherLen)
		other.CopyContents(0, store, length, otherLen)
		return store, length + otherLen
	}

	if store.Shape() == arraystore.ShapeObject {
		b.markSeen(other.Shape())
		store = b.Ensure(store, length, length+otherLen)
		boxed := other.BoxedCopyOfRange(0, otherLen)
		for i, v := range boxed {
			store.Write(length+i, v)
		}
		return store, length + otherLen
	}

	alloc := store.GeneralizeForStore(other)
	widened := alloc.New(length + otherLen)
	prefix := store.BoxedCopyOfRange(0, length)
	for i, v := range prefix {
		widened.Write(i, v)
	}
	suffix := other.BoxedCopyOfRange(0, otherLen)
	for i, v := range suffix {
		widened.Write(length+i, v)
	}
	b.ctrl.transitionTo(alloc.Shape())
	if alloc.Shape() == arraystore.ShapeObject {
		b.markSeen(store.Shape())
		b.markSeen(other.Shape())
	}
	return widened, length + otherLen
}

// Finish closes out the current build. In the uninitialised phase it
// inspects the three sticky booleans, commits the site to the tightest
// shape they allow, and repacks the boxed scratch buffer into that shape's
// store; in the specialized phase the store is already final and is
// returned unchanged. Either way, length becomes the site's new learned
// expected length.
func (b *Builder) Finish(store arraystore.Store, length int) arraystore.Store {
	defer func() { b.expected = length }()

	if b.phase != phaseUninitialised {
		return store
	}

	if length == 0 {
		if !b.ctrl.Initialized() {
			b.ctrl.transitionTo(arraystore.ShapeEmpty)
		}
		// Every zero-length array shares the one empty sentinel, regardless
		// of what the scratch buffer happened to be sized for.
		return arraystore.EmptySentinel()
	}

	shape := arraystore.ShapeObject
	switch {
	case b.couldUseInt:
		shape = arraystore.ShapeInt
	case b.couldUseLong:
		shape = arraystore.ShapeLong
	case b.couldUseDouble:
		shape = arraystore.ShapeDouble
	}
	b.ctrl.transitionTo(shape)
	if shape == arraystore.ShapeObject {
		return store
	}

	final := arraystore.AllocatorFor(shape).New(length)
	for i := 0; i < length; i++ {
		final.Write(i, store.Read(i))
	}
	return final
}

func (b *Builder) observe(v arraystore.Value) {
	k := arraystore.Classify(v)
	if k != arraystore.KindInt32 {
		b.couldUseInt = false
	}
	if k != arraystore.KindInt32 && k != arraystore.KindInt64 {
		b.couldUseLong = false
	}
	if !arraystore.IsDouble(v) {
		b.couldUseDouble = false
	}
}

func (b *Builder) generalizeToObject(store arraystore.Store, length int, v arraystore.Value) (arraystore.Store, int) {
	obj := arraystore.NewObjectStore(length + 1)
	boxed := store.BoxedCopyOfRange(0, length)
	for i, bv := range boxed {
		obj.Write(i, bv)
	}
	obj.Write(length, v)
	b.ctrl.transitionTo(arraystore.ShapeObject)
	b.phase = phaseSpecialized
	b.markSeen(store.Shape())
	return obj, length + 1
}

// markSeen records that the Object variant has now appended from shape.
// ShapeEmpty needs no bit of its own: an empty source never reaches here,
// since AppendArray returns immediately on otherLen == 0. Anything else is
// a shape this builder's taxonomy doesn't know, which can only mean a new
// Shape was added to arraystore without updating this switch.
func (b *Builder) markSeen(shape arraystore.Shape) {
	switch shape {
	case arraystore.ShapeInt:
		b.seenInt = true
	case arraystore.ShapeLong:
		b.seenLong = true
	case arraystore.ShapeDouble:
		b.seenDouble = true
	case arraystore.ShapeObject:
		b.seenObject = true
	case arraystore.ShapeEmpty:
	default:
		arraystore.PanicUnsupportedShape(shape)
	}
}
