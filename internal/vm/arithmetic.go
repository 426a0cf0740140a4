package vm

import (
	"fmt"

	"arrayspec/internal/bytecode"
)

// binaryAdd implements `+`: numeric addition, string concatenation, or — the
// one array-specific overload — array concatenation through the same
// Start/AppendArray/Finish sequence `concat(a, b)` runs, on a Builder cached
// for this OpAdd instruction's own call site, so `a + b` over two Int arrays
// stays unboxed exactly like the explicit builtin does.
func (vm *VM) binaryAdd(chunk *bytecode.Chunk, siteIP int) error {
	b, a := vm.pop(), vm.pop()
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return fmt.Errorf("cannot add %s to a number", ValueType(b))
		}
		vm.push(av + bv)
		return nil
	case string:
		vm.push(av + ToString(b))
		return nil
	case *Array:
		bv, ok := b.(*Array)
		if !ok {
			return fmt.Errorf("cannot add %s to an array", ValueType(b))
		}
		builder := vm.builderFor(chunk, siteIP)
		store, n := builder.Start()
		store, n = builder.AppendArray(store, n, av.Store, av.Length)
		store, n = builder.AppendArray(store, n, bv.Store, bv.Length)
		store = builder.Finish(store, n)
		vm.push(NewArray(store, n))
		return nil
	default:
		return fmt.Errorf("cannot add values of type %s and %s", ValueType(a), ValueType(b))
	}
}

// binaryNumeric implements the other arithmetic operators, which only ever
// operate on two numbers.
func (vm *VM) binaryNumeric(op func(a, b float64) float64) error {
	b, a := vm.pop(), vm.pop()
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if !aok || !bok {
		return fmt.Errorf("arithmetic requires two numbers, got %s and %s", ValueType(a), ValueType(b))
	}
	vm.push(op(af, bf))
	return nil
}

func (vm *VM) binaryDiv() error {
	b, a := vm.pop(), vm.pop()
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if !aok || !bok {
		return fmt.Errorf("division requires two numbers, got %s and %s", ValueType(a), ValueType(b))
	}
	if bf == 0 {
		return fmt.Errorf("division by zero")
	}
	vm.push(af / bf)
	return nil
}

func (vm *VM) binaryMod() error {
	b, a := vm.pop(), vm.pop()
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if !aok || !bok {
		return fmt.Errorf("modulo requires two numbers, got %s and %s", ValueType(a), ValueType(b))
	}
	if bf == 0 {
		return fmt.Errorf("modulo by zero")
	}
	vm.push(float64(int64(af) % int64(bf)))
	return nil
}

// compare implements the relational operators via a shared three-way
// comparison so `<`, `<=`, `>`, `>=` only need one code path each.
func (vm *VM) compare(pred func(c int) bool) error {
	b, a := vm.pop(), vm.pop()
	c, err := compareValues(a, b)
	if err != nil {
		return err
	}
	vm.push(pred(c))
	return nil
}

func compareValues(a, b Value) (int, error) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("cannot compare a number to a %s", ValueType(b))
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare a string to a %s", ValueType(b))
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("values of type %s are not ordered", ValueType(a))
	}
}
