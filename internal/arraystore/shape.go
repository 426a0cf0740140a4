// Package arraystore implements the specializing array-storage backends: the
// Empty, Int, Long, Double and Object store shapes, their allocators, and the
// value classifier that picks among them.
//
// The package has no dependency on the VM or bytecode packages — a Value here
// is simply interface{}, the same dynamic value representation Sentra uses at
// the language level. This keeps the engine reusable independent of any one
// host.
package arraystore

// Value is an opaque runtime value. Sentra represents every language-level
// number as a float64 (see internal/vm, which never distinguishes int32 from
// int64 from float64 at the type level) so Shape classification inspects the
// dynamic value rather than the static Go type: an integral float64 in
// int32 range classifies as Int, one that is integral but needs more than 32
// bits classifies as Long, and anything else numeric classifies as Double.
type Value = interface{}

// Shape identifies a store's concrete backing representation. Shapes form a
// lattice ordered by generality: Empty < Int < Long < Object, Double < Object,
// with Int, Long and Double mutually incomparable. No transition ever moves a
// site to a less general shape.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeInt
	ShapeLong
	ShapeDouble
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "Empty"
	case ShapeInt:
		return "Int"
	case ShapeLong:
		return "Long"
	case ShapeDouble:
		return "Double"
	case ShapeObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// MoreGeneralThan reports whether s is strictly more general than other in
// the shape lattice. Int, Long and Double are mutually incomparable; Object
// is more general than all four other shapes; Empty is less general than all
// four non-empty shapes.
func (s Shape) MoreGeneralThan(other Shape) bool {
	if s == other {
		return false
	}
	if other == ShapeEmpty {
		return s != ShapeEmpty
	}
	if s == ShapeObject {
		return other != ShapeObject
	}
	return false
}
