package arraystore

// Store is the uniform surface every shape exports. A store's
// logical length is tracked by its caller (the site or the finished array),
// not by the store itself — Store only ever deals in capacity and raw
// buffer positions.
type Store interface {
	// Shape identifies which concrete backing this store uses.
	Shape() Shape

	// Capacity returns the buffer size.
	Capacity() int

	// Read returns the value at i, boxing primitive slots as needed. Reading
	// any index of the empty sentinel is a caller error.
	Read(i int) Value

	// Write stores v at i. Precondition: Accepts(v); callers that haven't
	// checked must call GeneralizeForValue first and write into the result.
	Write(i int, v Value)

	// Accepts reports whether v can be written without widening the store.
	Accepts(v Value) bool

	// Expand returns a boxed buffer of newCapacity with this store's first
	// Capacity() slots copied in, boxed. Used when widening in place.
	Expand(newCapacity int) []Value

	// ExtractRange returns a new store holding a copy of [start, end). For
	// Empty, start and end must both be 0.
	ExtractRange(start, end int) Store

	// BoxedCopyOfRange returns a flat boxed copy of length elements starting
	// at start.
	BoxedCopyOfRange(start, length int) []Value

	// CopyContents bulk-copies length elements starting at srcStart into
	// dest starting at destStart. If dest cannot represent this store's
	// shape without widening, the copy boxes element-by-element instead —
	// CopyContents never fails, it only ever falls back to the slow path.
	CopyContents(srcStart int, dest Store, destStart, length int)

	// ToSliceCopy returns a flat boxed copy of the first length elements,
	// for callers that want a plain []interface{}.
	ToSliceCopy(length int) []Value

	// Sort orders the first size elements under the shape's natural
	// comparator. For Empty, size must be 0, and the call is then a no-op.
	Sort(size int)

	// Iterate returns a single-pass, non-restartable pull-iterator over
	// length elements starting at from.
	Iterate(from, length int) func() (Value, bool)

	// GeneralizeForValue returns the allocator for the tightest shape that
	// accepts both this store's shape and v.
	GeneralizeForValue(v Value) Allocator

	// GeneralizeForStore returns the allocator for the tightest shape that
	// accepts both this store's shape and other's shape wholesale.
	GeneralizeForStore(other Store) Allocator

	// Allocator returns the allocator that produces stores of this shape.
	Allocator() Allocator
}

// Allocator is a per-shape factory. It also encodes the shape's acceptance
// predicate and default (zero) value, so a caller that only holds an
// Allocator can still decide whether a value would force a widening before
// ever allocating a store.
type Allocator interface {
	Shape() Shape

	// New returns a fresh store of this shape with the given buffer
	// capacity and length 0.
	New(capacity int) Store

	// Accepts reports whether v can be inserted into a store of this shape
	// without widening.
	Accepts(v Value) bool

	// IsDefaultValue reports whether v equals this shape's zero value.
	IsDefaultValue(v Value) bool
}

// emptyAllocator, intAllocator, etc. are package-level singletons; there is
// exactly one allocator per shape; allocators carry no state of their own.
var (
	theEmptyAllocator  = emptyAllocator{}
	theIntAllocator    = intAllocator{}
	theLongAllocator   = longAllocator{}
	theDoubleAllocator = doubleAllocator{}
	theObjectAllocator = objectAllocator{}
)

// AllocatorFor returns the singleton allocator for shape.
func AllocatorFor(shape Shape) Allocator {
	switch shape {
	case ShapeEmpty:
		return theEmptyAllocator
	case ShapeInt:
		return theIntAllocator
	case ShapeLong:
		return theLongAllocator
	case ShapeDouble:
		return theDoubleAllocator
	case ShapeObject:
		return theObjectAllocator
	default:
		panic("arraystore: unknown shape")
	}
}

// generalize returns the tightest shape that is at least as general as both
// a and b in the lattice: Empty < Int < Long < Object, Double < Object,
// Int/Long/Double mutually incomparable.
func generalize(a, b Shape) Shape {
	if a == b {
		return a
	}
	if a == ShapeEmpty {
		return b
	}
	if b == ShapeEmpty {
		return a
	}
	if a == ShapeObject || b == ShapeObject {
		return ShapeObject
	}
	// a != b, neither Empty nor Object: Int/Long/Double pairwise generalize.
	switch {
	case a == ShapeInt && b == ShapeLong, a == ShapeLong && b == ShapeInt:
		return ShapeLong
	default:
		// Int/Double, Long/Double, Double/Int, Double/Long: no shared
		// primitive representation, so Object.
		return ShapeObject
	}
}

// growCapacity implements the amortised-O(1) push growth policy: allocate
// max(required, ceil(old * 1.75)), and never fewer than 4 slots. The factor
// is fixed here, matching arrayconfig.Default's growth factor, and is not
// read from an arrayconfig.Config; every store that grows inside Write or
// CopyContents uses it. Builder.Ensure sizes its stores through
// Config.Capacity instead.
func growCapacity(old, required int) int {
	grown := (old*7 + 3) / 4 // ceil(old * 1.75) in integer arithmetic
	if grown < required {
		grown = required
	}
	if grown < 4 {
		grown = 4
	}
	return grown
}
