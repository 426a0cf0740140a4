// Package vm implements Sentra's bytecode interpreter: a single stack
// machine that executes the chunks internal/compiler produces. Its
// array-construction opcodes (OpArray, OpBuildList/OpSpread) are the host
// that drives the specializing array-storage engine in internal/arraystore
// and internal/arraysite — everything else (arithmetic, control flow,
// calls, maps, try/catch) is carried over from Sentra's own bytecode VM,
// trimmed to the opcode subset internal/compiler actually emits.
package vm

import (
	"fmt"
	"sort"

	"arrayspec/internal/arrayconfig"
	"arrayspec/internal/arraysite"
	"arrayspec/internal/arraystore"
	"arrayspec/internal/arraytrace"
	"arrayspec/internal/bytecode"
	"arrayspec/internal/compiler"
	"arrayspec/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	stackSize    = 65536
	framesMax    = 256
	globalsSize  = 1024
	maxStepCount = 100_000_000 // runaway-script guard
)

// CallFrame is one activation record: the chunk being executed, the
// instruction pointer into it, and the stack slot its locals start at.
type CallFrame struct {
	chunk    *bytecode.Chunk
	ip       int
	slotBase int
	function *Function
}

// tryFrame is a pending catch handler, installed by OpTry and consulted
// by throwOrFail whenever a throw (an explicit OpThrow, or an error an
// instruction or native function reports) needs to find its nearest
// enclosing handler. A Go panic recovered by Run never reaches a handler.
type tryFrame struct {
	catchIP    int
	frameDepth int
	stackTop   int
}

// callSiteKey identifies a single compiled array-construction instruction by
// its (chunk, ip) pair. In a linear bytecode stream there is no AST node
// pointer to key specialization state on, so the instruction's position
// within its owning chunk stands in for one.
type callSiteKey struct {
	chunk *bytecode.Chunk
	ip    int
}

// VM is Sentra's bytecode interpreter.
type VM struct {
	stack    [stackSize]Value
	stackTop int

	globals   [globalsSize]Value
	globalMap map[string]int

	frames     [framesMax]CallFrame
	frameCount int

	tryStack []tryFrame

	arrayCfg arrayconfig.Config
	tracer   *arraytrace.Tracer

	literalSites map[callSiteKey]*arraysite.LiteralSite
	builders     map[callSiteKey]*arraysite.Builder

	// builtinSites gives each array-mutating builtin (push, concat, map,
	// filter, arrayFrom) its own call site, keyed by name rather than by
	// (chunk, ip): every invocation of `push`, wherever it is called from,
	// shares one specialization history, the same way a single bytecode
	// OpBuildList instruction does for the incremental-builder syntax.
	builtinSites map[string]*arraysite.Builder
}

// NewVM returns a VM ready to execute chunk as its top-level script, using
// the engine's default configuration and a no-op tracer.
func NewVM(chunk *bytecode.Chunk) *VM {
	return NewVMWithConfig(chunk, arrayconfig.Default(), arraytrace.New(zap.NewNop()))
}

// NewVMWithConfig returns a VM using an explicit array-engine configuration
// and specialization tracer — the constructor cmd/arrayspec uses so CLI
// flags can override growth policy and logging.
func NewVMWithConfig(chunk *bytecode.Chunk, cfg arrayconfig.Config, tracer *arraytrace.Tracer) *VM {
	v := &VM{
		globalMap:    make(map[string]int),
		arrayCfg:     cfg,
		tracer:       tracer,
		literalSites: make(map[callSiteKey]*arraysite.LiteralSite),
		builders:     make(map[callSiteKey]*arraysite.Builder),
		builtinSites: make(map[string]*arraysite.Builder),
	}
	v.frames[0] = CallFrame{chunk: chunk, ip: 0, slotBase: 0}
	v.frameCount = 1
	v.registerBuiltins()
	return v
}

// GetGlobalNames returns every defined global name, sorted, for REPL/CLI
// introspection.
func (vm *VM) GetGlobalNames() []string {
	names := make([]string, 0, len(vm.globalMap))
	for name := range vm.globalMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (vm *VM) push(v Value) {
	if vm.stackTop >= stackSize {
		panic("vm: stack overflow")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (frame *CallFrame) readByte() byte {
	b := frame.chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (frame *CallFrame) readShort() int {
	hi := frame.readByte()
	lo := frame.readByte()
	return int(hi)<<8 | int(lo)
}

func (frame *CallFrame) readConstant() Value {
	return frame.chunk.Constants[frame.readByte()]
}

// Run executes frame 0 to completion (or until an uncaught throw/error),
// returning the value left on the stack by the outermost OpReturn.
func (vm *VM) Run() (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = vm.toSentraError(r)
		}
	}()

	steps := 0
	for vm.frameCount > 0 {
		steps++
		if steps > maxStepCount {
			return nil, errors.NewRuntimeError("instruction limit exceeded (possible infinite loop)", vm.currentFile(), vm.currentLine(), 0)
		}
		done, res, stepErr := vm.step()
		if stepErr != nil {
			return nil, stepErr
		}
		if done {
			return res, nil
		}
	}
	return nil, nil
}

// invoke calls fn(args...) synchronously and returns its result, re-entering
// the step loop if fn is a user Function. Builtins that need to call back
// into user code (Array.map/filter, arrayFrom's producer) use this.
func (vm *VM) invoke(fn Value, args []Value) (Value, error) {
	base := vm.frameCount
	for _, a := range args {
		vm.push(a)
	}
	vm.push(fn)
	if err := vm.performCall(len(args)); err != nil {
		return nil, err
	}
	for vm.frameCount > base {
		_, _, err := vm.step()
		if err != nil {
			return nil, err
		}
	}
	return vm.pop(), nil
}

func (vm *VM) currentFile() string {
	if vm.frameCount == 0 {
		return ""
	}
	frame := &vm.frames[vm.frameCount-1]
	return frame.chunk.GetDebugInfo(frame.ip).File
}

func (vm *VM) currentLine() int {
	if vm.frameCount == 0 {
		return 0
	}
	frame := &vm.frames[vm.frameCount-1]
	return frame.chunk.GetDebugInfo(frame.ip).Line
}

// toSentraError converts a recovered panic (a *arraystore.FatalError from
// the array engine, a *RuntimeError thrown by Sentra code, or any other Go
// panic) into the typed error Run()/invoke()'s caller sees.
func (vm *VM) toSentraError(r interface{}) error {
	msg := fmt.Sprintf("%v", r)
	switch e := r.(type) {
	case *arraystore.FatalError:
		msg = e.Error()
	case *RuntimeError:
		msg = e.Message
	case error:
		msg = e.Error()
	}
	sentraErr := errors.NewRuntimeError(msg, vm.currentFile(), vm.currentLine(), 0)
	return sentraErr.WithStack(vm.callStack())
}

// callStack walks the active frames, innermost first, into the stack trace
// shape a *errors.SentraError carries.
func (vm *VM) callStack() []errors.StackFrame {
	trace := make([]errors.StackFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		debug := frame.chunk.GetDebugInfo(frame.ip)
		name := debug.Function
		if name == "" && frame.function != nil {
			name = frame.function.Name
		}
		trace = append(trace, errors.StackFrame{
			Function: name,
			File:     debug.File,
			Line:     debug.Line,
			Column:   debug.Column,
		})
	}
	return trace
}

// step executes exactly one instruction of the current (innermost) frame.
// done reports whether the outermost frame just returned.
func (vm *VM) step() (done bool, result Value, err error) {
	frame := &vm.frames[vm.frameCount-1]
	if frame.ip >= len(frame.chunk.Code) {
		vm.frameCount--
		if vm.frameCount == 0 {
			return true, nil, nil
		}
		vm.push(nil)
		return false, nil, nil
	}

	opStart := frame.ip
	op := bytecode.OpCode(frame.readByte())

	switch op {
	case bytecode.OpConstant:
		vm.push(vm.convertConstant(frame.readConstant()))

	case bytecode.OpNil:
		vm.push(nil)

	case bytecode.OpPop:
		vm.pop()

	case bytecode.OpDup:
		vm.push(vm.peek(0))

	case bytecode.OpAdd:
		if e := vm.binaryAdd(frame.chunk, opStart); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpSub:
		if e := vm.binaryNumeric(func(a, b float64) float64 { return a - b }); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpMul:
		if e := vm.binaryNumeric(func(a, b float64) float64 { return a * b }); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpDiv:
		if e := vm.binaryDiv(); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpMod:
		if e := vm.binaryMod(); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpNegate:
		n, ok := vm.pop().(float64)
		if !ok {
			return vm.throwOrFail(&RuntimeError{Message: "operand to unary '-' must be a number"})
		}
		vm.push(-n)

	case bytecode.OpNot:
		vm.push(!IsTruthy(vm.pop()))

	case bytecode.OpAnd:
		b, a := vm.pop(), vm.pop()
		vm.push(IsTruthy(a) && IsTruthy(b))
	case bytecode.OpOr:
		b, a := vm.pop(), vm.pop()
		vm.push(IsTruthy(a) || IsTruthy(b))

	case bytecode.OpEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(ValuesEqual(a, b))
	case bytecode.OpNotEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(!ValuesEqual(a, b))
	case bytecode.OpGreater:
		if e := vm.compare(func(c int) bool { return c > 0 }); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpGreaterEqual:
		if e := vm.compare(func(c int) bool { return c >= 0 }); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpLess:
		if e := vm.compare(func(c int) bool { return c < 0 }); e != nil {
			return vm.throwOrFail(e)
		}
	case bytecode.OpLessEqual:
		if e := vm.compare(func(c int) bool { return c <= 0 }); e != nil {
			return vm.throwOrFail(e)
		}

	case bytecode.OpConcat:
		b, a := vm.pop(), vm.pop()
		vm.push(ToString(a) + ToString(b))

	case bytecode.OpPrint:
		PrintValue(vm.pop())

	case bytecode.OpJump:
		offset := frame.readShort()
		frame.ip += offset
	case bytecode.OpJumpIfFalse:
		offset := frame.readShort()
		if !IsTruthy(vm.peek(0)) {
			frame.ip += offset
		}
	case bytecode.OpLoop:
		offset := frame.readShort()
		frame.ip -= offset

	case bytecode.OpDefineGlobal:
		name := frame.readConstant().(string)
		vm.setGlobal(name, vm.pop())
	case bytecode.OpGetGlobal:
		name := frame.readConstant().(string)
		idx, ok := vm.globalMap[name]
		if !ok {
			return vm.throwOrFail(&RuntimeError{Message: "undefined variable '" + name + "'"})
		}
		vm.push(vm.globals[idx])
	case bytecode.OpSetGlobal:
		name := frame.readConstant().(string)
		vm.setGlobal(name, vm.peek(0))

	case bytecode.OpGetLocal:
		slot := int(frame.readByte())
		vm.push(vm.stack[frame.slotBase+slot])
	case bytecode.OpSetLocal:
		slot := int(frame.readByte())
		for frame.slotBase+slot >= vm.stackTop {
			vm.push(nil)
		}
		vm.stack[frame.slotBase+slot] = vm.peek(0)

	case bytecode.OpCall:
		argCount := int(frame.readByte())
		if e := vm.performCall(argCount); e != nil {
			return vm.throwOrFail(e)
		}

	case bytecode.OpReturn:
		res := vm.pop()
		returnTo := frame.slotBase
		vm.frameCount--
		vm.stackTop = returnTo
		if vm.frameCount == 0 {
			return true, res, nil
		}
		vm.push(res)

	case bytecode.OpArray:
		count := frame.readShort()
		values := make([]arraystore.Value, count)
		for i := count - 1; i >= 0; i-- {
			values[i] = vm.toStoreValue(vm.pop())
		}
		site := vm.literalSiteFor(frame.chunk, opStart)
		store, n := site.Execute(values)
		vm.push(NewArray(store, n))

	case bytecode.OpBuildList:
		count := frame.readShort()
		items := make([]interface{}, count)
		for i := count - 1; i >= 0; i-- {
			items[i] = vm.pop()
		}
		builder := vm.builderFor(frame.chunk, opStart)
		store, n := builder.Start()
		for _, it := range items {
			if sp, ok := it.(*spreadMarker); ok {
				store, n = builder.AppendArray(store, n, sp.array.Store, sp.array.Length)
				continue
			}
			store, n = builder.AppendValue(store, n, vm.toStoreValue(it))
		}
		store = builder.Finish(store, n)
		vm.push(NewArray(store, n))

	case bytecode.OpSpread:
		top := vm.pop()
		arr, ok := top.(*Array)
		if !ok {
			return vm.throwOrFail(&RuntimeError{Message: "cannot spread a non-array value"})
		}
		vm.push(&spreadMarker{array: arr})

	case bytecode.OpMap:
		count := frame.readShort()
		m := NewMap()
		for i := 0; i < count; i++ {
			v := vm.pop()
			k := vm.pop()
			key, ok := k.(string)
			if !ok {
				key = ToString(k)
			}
			m.Set(key, v)
		}
		vm.push(m)

	case bytecode.OpIndex:
		index := vm.pop()
		obj := vm.pop()
		v, e := vm.index(obj, index)
		if e != nil {
			return vm.throwOrFail(e)
		}
		vm.push(v)

	case bytecode.OpSetIndex:
		value := vm.pop()
		index := vm.pop()
		obj := vm.pop()
		if e := vm.setIndex(obj, index, value); e != nil {
			return vm.throwOrFail(e)
		}
		vm.push(value)

	case bytecode.OpIterStart:
		coll := vm.pop()
		it, e := vm.newIterator(coll)
		if e != nil {
			return vm.throwOrFail(e)
		}
		vm.push(it)
	case bytecode.OpIterNext:
		it := vm.peek(0).(*iterator)
		v, ok := it.next()
		if !ok {
			vm.push(false)
			break
		}
		vm.push(v)
		vm.push(true)
	case bytecode.OpIterEnd:
		vm.pop() // discard the iterator

	case bytecode.OpImport:
		_ = frame.readConstant() // module path: module loading is out of scope
		vm.push(NewMap())

	case bytecode.OpTry:
		offset := frame.readShort()
		vm.tryStack = append(vm.tryStack, tryFrame{
			catchIP:    frame.ip + offset,
			frameDepth: vm.frameCount,
			stackTop:   vm.stackTop,
		})
	case bytecode.OpThrow:
		v := vm.pop()
		return vm.throwOrFail(throwable{v})

	default:
		return vm.throwOrFail(&RuntimeError{Message: fmt.Sprintf("unimplemented opcode %d", op)})
	}

	return false, nil, nil
}

// throwable adapts an arbitrary thrown Sentra value into a Go error the
// try/catch machinery can carry without losing the original value: a
// string or number thrown by `throw expr` still prints and compares as
// itself once caught.
type throwable struct{ v Value }

func (t throwable) Error() string { return ToString(t.v) }

// throwOrFail looks for an enclosing try/catch handler for err. If one
// exists, the stack and frame depth unwind to it, the thrown value is
// pushed for the catch block's binding, and execution continues from the
// handler. Otherwise the error propagates as Run()'s return value.
func (vm *VM) throwOrFail(err error) (bool, Value, error) {
	if len(vm.tryStack) == 0 {
		return false, nil, errors.NewRuntimeError(err.Error(), vm.currentFile(), vm.currentLine(), 0)
	}
	handler := vm.tryStack[len(vm.tryStack)-1]
	vm.tryStack = vm.tryStack[:len(vm.tryStack)-1]

	vm.frameCount = handler.frameDepth
	vm.stackTop = handler.stackTop
	vm.push(errorValue(err))

	active := &vm.frames[vm.frameCount-1]
	active.ip = handler.catchIP
	return false, nil, nil
}

// errorValue converts a thrown Go error into the Sentra Value a catch
// block's bound variable sees.
func errorValue(err error) Value {
	if t, ok := err.(throwable); ok {
		return t.v
	}
	return &RuntimeError{Message: err.Error()}
}

// spreadMarker tags a value popped for OpBuildList as a source array to
// flatten in (from `...expr`) rather than a single element to append.
type spreadMarker struct {
	array *Array
}

// convertConstant lazily converts a *compiler.Function constant (the
// compiler's own, VM-independent function representation) into this
// package's callable *Function the first time it is loaded off the
// constant pool.
func (vm *VM) convertConstant(c Value) Value {
	if cf, ok := c.(*compiler.Function); ok {
		return &Function{Name: cf.Name, Arity: cf.Arity, Params: cf.Params, Chunk: cf.Chunk}
	}
	return c
}

func (vm *VM) setGlobal(name string, v Value) {
	idx, ok := vm.globalMap[name]
	if !ok {
		idx = len(vm.globalMap)
		vm.globalMap[name] = idx
	}
	vm.globals[idx] = v
}

// RegisterNative installs a native function as a global, for callers (the
// CLI's test runner, embedders) that need to extend a VM's builtin surface
// before Run.
func (vm *VM) RegisterNative(name string, fn *NativeFunction) {
	vm.setGlobal(name, fn)
}

// toStoreValue prepares a VM value for arraystore/arraysite consumption.
// Numbers already arrive as float64 (Classify inspects them directly); every
// other value passes through unchanged as an opaque arraystore.Value.
func (vm *VM) toStoreValue(v Value) arraystore.Value { return v }

// literalSiteFor returns the cached LiteralSite for the OpArray instruction
// at (chunk, siteIP), minting one on first use.
func (vm *VM) literalSiteFor(chunk *bytecode.Chunk, siteIP int) *arraysite.LiteralSite {
	key := callSiteKey{chunk: chunk, ip: siteIP}
	if s, ok := vm.literalSites[key]; ok {
		return s
	}
	s := arraysite.NewLiteralSite(uuid.New(), vm.transitionHook())
	vm.literalSites[key] = s
	return s
}

// builderFor returns the cached Builder for the OpBuildList (or
// array-concatenating OpAdd) instruction at (chunk, siteIP), minting one on
// first use.
func (vm *VM) builderFor(chunk *bytecode.Chunk, siteIP int) *arraysite.Builder {
	key := callSiteKey{chunk: chunk, ip: siteIP}
	if b, ok := vm.builders[key]; ok {
		return b
	}
	b := arraysite.NewBuilder(uuid.New(), vm.arrayCfg, vm.transitionHook())
	vm.builders[key] = b
	return b
}

// builtinBuilder returns the shared Builder for a native-function call site
// named name (e.g. "push", "concat"), minting one on first use.
func (vm *VM) builtinBuilder(name string) *arraysite.Builder {
	if b, ok := vm.builtinSites[name]; ok {
		return b
	}
	b := arraysite.NewBuilder(uuid.New(), vm.arrayCfg, vm.transitionHook())
	vm.builtinSites[name] = b
	return b
}

func (vm *VM) transitionHook() arraysite.TransitionFunc {
	if vm.tracer == nil {
		return nil
	}
	hook := vm.tracer.Hook()
	return func(site uuid.UUID, from, to arraystore.Shape) {
		hook(arraytrace.Transition{Site: site, From: from, To: to})
	}
}
