// Package bytecode defines the instruction set the array-storage VM steps
// through. This is a pared-down opcode set: a handful of scripting-language
// opcode families (closures/upvalues, the map collection, raw string
// indexing, a second import/export surface, type-reflection opcodes, a
// "fast" local-variable pair, and the concurrency primitives) were never
// emitted by any compiler path feeding this VM and are cut rather than
// carried as unreachable cases — see DESIGN.md's opcode-trim entry.
package bytecode

type OpCode byte

const (
	OpConstant OpCode = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpEqual
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpNil
	OpPop
	OpDup
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpCall
	OpReturn

	// Array-storage-engine opcodes: OpArray is the fixed-arity literal site,
	// OpBuildList/OpSpread drive the dynamic-arity incremental builder.
	OpArray
	OpIndex
	OpSetIndex
	OpBuildList
	OpSpread

	// OpMap is a plain boxed key/value collection; it shares no storage
	// machinery with the array engine and gets no specialization.
	OpMap

	// String/logical/control-flow opcodes the front end still emits.
	OpConcat
	OpAnd
	OpOr
	OpNot

	// Lazy, pull-based iteration over an Array or Map.
	OpIterStart
	OpIterNext
	OpIterEnd

	// OpImport is a stub: cross-file module resolution is out of scope for
	// a single-script array-engine host, so it only pops its path constant
	// and pushes an empty map.
	OpImport

	// Exception handling: OpTry pushes a catch target, OpThrow unwinds to
	// the nearest one.
	OpTry
	OpThrow
)
