package vm

import (
	"fmt"
)

// registerBuiltins installs the global native functions every Sentra program
// sees without an import: the array-mutation surface the specializing
// storage engine is built to serve (push, concat, sort, map, filter,
// arrayFrom) plus a handful of scalar helpers exposed the same way.
func (vm *VM) registerBuiltins() {
	register := func(name string, arity int, fn func(vm *VM, args []Value) (Value, error)) {
		vm.setGlobal(name, &NativeFunction{Name: name, Arity: arity, Function: fn})
	}

	register("push", 2, builtinPush)
	register("concat", 2, builtinConcat)
	register("sort", 1, builtinSort)
	register("map", 2, builtinMap)
	register("filter", 2, builtinFilter)
	register("arrayFrom", 2, builtinArrayFrom)
	register("len", 1, builtinLen)
	register("type", 1, builtinType)
}

func wantArray(args []Value, i int, who string) (*Array, error) {
	arr, ok := args[i].(*Array)
	if !ok {
		return nil, fmt.Errorf("%s expects an array, got %s", who, ValueType(args[i]))
	}
	return arr, nil
}

func wantCallable(args []Value, i int, who string) (Value, error) {
	switch args[i].(type) {
	case *Function, *NativeFunction, *BoundMethod:
		return args[i], nil
	default:
		return nil, fmt.Errorf("%s expects a function, got %s", who, ValueType(args[i]))
	}
}

// builtinPush appends v to arr in place and returns arr, mutating arr.Store
// through the shared "push" call site: every push anywhere in a running
// program shares one specialization history, just as a single OpBuildList
// instruction does for `[...]`-style incremental construction.
func builtinPush(vm *VM, args []Value) (Value, error) {
	arr, err := wantArray(args, 0, "push")
	if err != nil {
		return nil, err
	}
	builder := vm.builtinBuilder("push")
	store, n := builder.Start()
	store, n = builder.AppendArray(store, n, arr.Store, arr.Length)
	store, n = builder.AppendValue(store, n, vm.toStoreValue(args[1]))
	store = builder.Finish(store, n)
	arr.Store, arr.Length = store, n
	return arr, nil
}

// builtinConcat returns a new array holding arr's elements followed by
// other's, through the shared "concat" call site.
func builtinConcat(vm *VM, args []Value) (Value, error) {
	arr, err := wantArray(args, 0, "concat")
	if err != nil {
		return nil, err
	}
	other, err := wantArray(args, 1, "concat")
	if err != nil {
		return nil, err
	}
	builder := vm.builtinBuilder("concat")
	store, n := builder.Start()
	store, n = builder.AppendArray(store, n, arr.Store, arr.Length)
	store, n = builder.AppendArray(store, n, other.Store, other.Length)
	store = builder.Finish(store, n)
	return NewArray(store, n), nil
}

// builtinSort orders arr in place under its shape's natural comparator and
// returns it.
func builtinSort(vm *VM, args []Value) (Value, error) {
	arr, err := wantArray(args, 0, "sort")
	if err != nil {
		return nil, err
	}
	arr.Store.Sort(arr.Length)
	return arr, nil
}

// builtinMap returns a new array of fn(element) for each element of arr, fn
// called back into through vm.invoke so a user-defined Sentra function works
// exactly like a native one here.
func builtinMap(vm *VM, args []Value) (Value, error) {
	arr, err := wantArray(args, 0, "map")
	if err != nil {
		return nil, err
	}
	fn, err := wantCallable(args, 1, "map")
	if err != nil {
		return nil, err
	}
	builder := vm.builtinBuilder("map")
	store, n := builder.Start()
	for i := 0; i < arr.Length; i++ {
		result, err := vm.invoke(fn, []Value{arr.At(i)})
		if err != nil {
			return nil, err
		}
		store, n = builder.AppendValue(store, n, vm.toStoreValue(result))
	}
	store = builder.Finish(store, n)
	return NewArray(store, n), nil
}

// builtinFilter returns a new array of arr's elements for which fn returns a
// truthy value.
func builtinFilter(vm *VM, args []Value) (Value, error) {
	arr, err := wantArray(args, 0, "filter")
	if err != nil {
		return nil, err
	}
	fn, err := wantCallable(args, 1, "filter")
	if err != nil {
		return nil, err
	}
	builder := vm.builtinBuilder("filter")
	store, n := builder.Start()
	for i := 0; i < arr.Length; i++ {
		v := arr.At(i)
		keep, err := vm.invoke(fn, []Value{v})
		if err != nil {
			return nil, err
		}
		if IsTruthy(keep) {
			store, n = builder.AppendValue(store, n, vm.toStoreValue(v))
		}
	}
	store = builder.Finish(store, n)
	return NewArray(store, n), nil
}

// builtinArrayFrom builds a new length-n array by calling producer(i) for
// i in [0, n) — the dynamic-arity construction path exercised without any
// source-level array literal at all.
func builtinArrayFrom(vm *VM, args []Value) (Value, error) {
	nf, ok := args[0].(float64)
	if !ok {
		return nil, fmt.Errorf("arrayFrom expects a number length, got %s", ValueType(args[0]))
	}
	producer, err := wantCallable(args, 1, "arrayFrom")
	if err != nil {
		return nil, err
	}
	n := int(nf)
	if n < 0 {
		return nil, fmt.Errorf("arrayFrom length must be non-negative, got %d", n)
	}
	builder := vm.builtinBuilder("arrayFrom")
	store, length := builder.StartLength(n)
	for i := 0; i < n; i++ {
		v, err := vm.invoke(producer, []Value{float64(i)})
		if err != nil {
			return nil, err
		}
		store, length = builder.AppendValue(store, length, vm.toStoreValue(v))
	}
	store = builder.Finish(store, length)
	return NewArray(store, length), nil
}

func builtinLen(vm *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Array:
		return float64(v.Length), nil
	case *Map:
		return float64(len(v.Keys())), nil
	case string:
		return float64(len([]rune(v))), nil
	default:
		return nil, fmt.Errorf("len expects an array, map or string, got %s", ValueType(v))
	}
}

func builtinType(vm *VM, args []Value) (Value, error) {
	return ValueType(args[0]), nil
}
