package vm

import "fmt"

// arrayMethods names the Array properties that resolve to a bound native
// method rather than an element read: the language-level mutation and
// traversal operations every Array supports as method-call syntax.
var arrayMethods = map[string]bool{
	"push": true, "concat": true, "sort": true, "map": true, "filter": true,
}

// index implements OpIndex: `obj[idx]` or `obj.prop` (property access
// compiles to the same opcode with a string constant index — see
// compiler.VisitPropertyExpr).
func (vm *VM) index(obj, idx Value) (Value, error) {
	switch o := obj.(type) {
	case *Array:
		if key, ok := idx.(string); ok {
			if key == "length" {
				return float64(o.Length), nil
			}
			if arrayMethods[key] {
				return &BoundMethod{Object: o, Method: key}, nil
			}
			return nil, fmt.Errorf("array has no property '%s'", key)
		}
		n, ok := idx.(float64)
		if !ok {
			return nil, fmt.Errorf("array index must be a number, got %s", ValueType(idx))
		}
		i := int(n)
		if i < 0 || i >= o.Length {
			return nil, fmt.Errorf("array index %d out of bounds (length %d)", i, o.Length)
		}
		return o.At(i), nil

	case *Map:
		key, ok := idx.(string)
		if !ok {
			key = ToString(idx)
		}
		v, _ := o.Get(key)
		return v, nil

	case string:
		if key, ok := idx.(string); ok && key == "length" {
			return float64(len([]rune(o))), nil
		}
		n, ok := idx.(float64)
		if !ok {
			return nil, fmt.Errorf("string index must be a number, got %s", ValueType(idx))
		}
		runes := []rune(o)
		i := int(n)
		if i < 0 || i >= len(runes) {
			return nil, fmt.Errorf("string index %d out of bounds (length %d)", i, len(runes))
		}
		return string(runes[i]), nil

	default:
		return nil, fmt.Errorf("cannot index a value of type %s", ValueType(obj))
	}
}

// setIndex implements OpSetIndex: `obj[idx] = value`.
func (vm *VM) setIndex(obj, idx, value Value) error {
	switch o := obj.(type) {
	case *Array:
		n, ok := idx.(float64)
		if !ok {
			return fmt.Errorf("array index must be a number, got %s", ValueType(idx))
		}
		i := int(n)
		if i < 0 || i >= o.Length {
			return fmt.Errorf("array index %d out of bounds (length %d)", i, o.Length)
		}
		stored := vm.toStoreValue(value)
		if !o.Store.Accepts(stored) {
			alloc := o.Store.GeneralizeForValue(stored)
			wider := alloc.New(o.Store.Capacity())
			o.Store.CopyContents(0, wider, 0, o.Length)
			o.Store = wider
		}
		o.Store.Write(i, stored)
		return nil

	case *Map:
		key, ok := idx.(string)
		if !ok {
			key = ToString(idx)
		}
		o.Set(key, value)
		return nil

	default:
		return fmt.Errorf("cannot assign into a value of type %s", ValueType(obj))
	}
}

// iterator is the single-pass, non-restartable pull-iterator OpIterStart
// produces: a lazily-advanced sequence over a collection's elements.
type iterator struct {
	next func() (Value, bool)
}

func (vm *VM) newIterator(coll Value) (*iterator, error) {
	switch c := coll.(type) {
	case *Array:
		pull := c.Store.Iterate(0, c.Length)
		return &iterator{next: func() (Value, bool) {
			v, ok := pull()
			if !ok {
				return nil, false
			}
			return normalizeNumber(v), true
		}}, nil

	case *Map:
		keys := c.Keys()
		i := 0
		return &iterator{next: func() (Value, bool) {
			if i >= len(keys) {
				return nil, false
			}
			k := keys[i]
			i++
			return k, true
		}}, nil

	default:
		return nil, fmt.Errorf("value of type %s is not iterable", ValueType(coll))
	}
}
