package vm

import "fmt"

// performCall implements OpCall: the compiler pushes arguments left to
// right, then the callee, then OpCall argCount — so the callee sits on top
// of its own (already evaluated, already ordered) argument list.
func (vm *VM) performCall(argCount int) error {
	callee := vm.pop()

	switch fn := callee.(type) {
	case *BoundMethod:
		method, ok := vm.globalNative(fn.Method)
		if !ok {
			return fmt.Errorf("unknown array method '%s'", fn.Method)
		}
		args := vm.takeArgs(argCount)
		full := append([]Value{fn.Object}, args...)
		return vm.callNative(method, full)

	case *NativeFunction:
		args := vm.takeArgs(argCount)
		return vm.callNative(fn, args)

	case *Function:
		if fn.Arity != argCount {
			return fmt.Errorf("function '%s' expects %d argument(s), got %d", fn.Name, fn.Arity, argCount)
		}
		args := vm.takeArgs(argCount)
		if vm.frameCount >= framesMax {
			return fmt.Errorf("call stack overflow")
		}
		slotBase := vm.stackTop
		for _, a := range args {
			vm.push(a)
		}
		vm.frames[vm.frameCount] = CallFrame{chunk: fn.Chunk, ip: 0, slotBase: slotBase, function: fn}
		vm.frameCount++
		return nil

	default:
		return fmt.Errorf("value of type %s is not callable", ValueType(callee))
	}
}

// takeArgs reads the argCount values just below the (already popped)
// callee, in left-to-right order, and removes them from the stack.
func (vm *VM) takeArgs(argCount int) []Value {
	base := vm.stackTop - argCount
	args := make([]Value, argCount)
	copy(args, vm.stack[base:vm.stackTop])
	vm.stackTop = base
	return args
}

func (vm *VM) callNative(fn *NativeFunction, args []Value) error {
	if fn.Arity >= 0 && fn.Arity != len(args) {
		return fmt.Errorf("'%s' expects %d argument(s), got %d", fn.Name, fn.Arity, len(args))
	}
	result, err := fn.Function(vm, args)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// globalNative looks up a registered builtin by name. BoundMethod dispatch
// reuses the same global namespace ordinary calls use, so `push(arr, v)`
// and `arr.push(v)` are the same NativeFunction under the hood.
func (vm *VM) globalNative(name string) (*NativeFunction, bool) {
	idx, ok := vm.globalMap[name]
	if !ok {
		return nil, false
	}
	fn, ok := vm.globals[idx].(*NativeFunction)
	return fn, ok
}
