package vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"arrayspec/internal/arraystore"
	"arrayspec/internal/bytecode"
)

// Value is the dynamically-typed runtime value every bytecode instruction
// operates on. Sentra represents every language-level number as a float64
// (see internal/arraystore's Classify doc comment); strings are plain Go
// strings; booleans are plain Go bools; nil is the language's nil.
type Value interface{}

// Function is a compiled, callable unit: either the top-level script or a
// user-defined function/lambda, converted from *compiler.Function the first
// time it is loaded off a chunk's constant pool (see vm.go's OpConstant
// handler).
type Function struct {
	Name   string
	Arity  int
	Params []string
	Chunk  *bytecode.Chunk
}

// NativeFunction wraps a Go function as a callable Sentra value — the
// mechanism both builtins (push, concat, arrayFrom...) and the testing
// package's assertions are exposed through.
type NativeFunction struct {
	Name     string
	Arity    int // -1 means variadic
	Function func(vm *VM, args []Value) (Value, error)
}

// BoundMethod is what OpIndex produces for `receiver.methodName` when
// methodName names a builtin method rather than a data property: `arr.push`
// evaluates to a value that, applied via OpCall, dispatches to a
// NativeFunction with the receiver prepended as its first argument.
type BoundMethod struct {
	Object Value
	Method string
}

// Array is the finished array wrapper. Storage is delegated entirely to
// internal/arraystore: Array never holds a boxed []Value itself, so a
// uniformly-typed array stays unboxed end to end.
type Array struct {
	Store  arraystore.Store
	Length int
}

// NewArray wraps store/length as a Sentra-visible array value.
func NewArray(store arraystore.Store, length int) *Array {
	return &Array{Store: store, Length: length}
}

// Elements returns a boxed copy of the array's contents, numeric slots
// normalised back to float64 to match Sentra's language-level number
// representation (arraystore's Int/Long stores hold unboxed int32/int64
// internally; nothing outside internal/arraystore should observe that).
func (a *Array) Elements() []Value {
	boxed := a.Store.ToSliceCopy(a.Length)
	out := make([]Value, len(boxed))
	for i, v := range boxed {
		out[i] = normalizeNumber(v)
	}
	return out
}

// At returns the element at i (0 <= i < Length), normalised to float64 if
// numeric.
func (a *Array) At(i int) Value {
	return normalizeNumber(a.Store.Read(i))
}

// normalizeNumber collapses arraystore's unboxed int32/int64 representation
// back to the single float64 numeric type the rest of the VM expects.
// Everything else (strings, bools, nil, *Array, *Map, *Function...) passes
// through unchanged.
func normalizeNumber(v Value) Value {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return v
	}
}

// Map is Sentra's dynamically-keyed collection value, keyed by string (the
// only key type the language's {k: v} literal syntax and OpMap opcode
// produce).
type Map struct {
	mu    sync.RWMutex
	Items map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{Items: make(map[string]Value)}
}

func (m *Map) Get(key string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.Items[key]
	return v, ok
}

func (m *Map) Set(key string, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[key] = v
}

// Keys returns the map's keys in sorted order, for deterministic printing
// and iteration.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.Items))
	for k := range m.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RuntimeError is the Sentra value a catch block receives for an error that
// an instruction or a native function reports, distinct from the Go error
// Run() itself returns — a RuntimeError is catchable by a try/catch block; a
// Go error from Run is not. A value thrown by a `throw` statement reaches the
// catch block as itself, not as a RuntimeError (see throwable).
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// IsTruthy implements Sentra's truthiness rule: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}

// ValueType names v's runtime type the way Sentra's error messages report
// it.
func ValueType(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case *Array:
		return "array"
	case *Map:
		return "map"
	case *Function, *NativeFunction, *BoundMethod:
		return "function"
	case *RuntimeError:
		return "error"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValuesEqual implements Sentra's `==` for every value kind OpEqual must
// handle directly (arrays/maps compare by identity, matching reference
// types in the host language; everything else compares by value).
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case *Array:
		bv, ok := b.(*Array)
		return ok && av == bv
	case *Map:
		bv, ok := b.(*Map)
		return ok && av == bv
	default:
		return a == b
	}
}

// ToString renders v the way `print` and string interpolation do.
func ToString(v Value) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case string:
		return t
	case *Array:
		parts := make([]string, t.Length)
		for i := 0; i < t.Length; i++ {
			parts[i] = ToString(t.At(i))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		keys := t.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			v, _ := t.Get(k)
			parts[i] = fmt.Sprintf("%s: %s", k, ToString(v))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Function:
		return fmt.Sprintf("<fn %s>", t.Name)
	case *NativeFunction:
		return fmt.Sprintf("<native fn %s>", t.Name)
	case *BoundMethod:
		return fmt.Sprintf("<bound method %s>", t.Method)
	case *RuntimeError:
		return t.Message
	default:
		return fmt.Sprint(v)
	}
}

// ToBool coerces v using Sentra's truthiness rule; an alias of IsTruthy
// kept for call sites that read more naturally as a coercion.
func ToBool(v Value) bool { return IsTruthy(v) }

// PrintValue implements the `print` statement's output.
func PrintValue(v Value) {
	fmt.Println(ToString(v))
}
