package vm

import (
	"testing"

	"arrayspec/internal/arrayconfig"
	"arrayspec/internal/arraystore"
	"arrayspec/internal/arraytrace"
	"arrayspec/internal/bytecode"
	"arrayspec/internal/compiler"
	"arrayspec/internal/lexer"
	"arrayspec/internal/parser"

	"go.uber.org/zap"
)

// compileSource runs a Sentra source string through the full front end,
// mirroring cmd/arrayspec's pipeline, for tests that need real call/global
// opcodes rather than hand-assembled bytecode.
func compileSource(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParserWithSource(tokens, src, "<test>")
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse error: %v", p.Errors[0])
	}
	hc := compiler.NewHoistingCompilerWithDebug("<test>")
	return hc.CompileWithHoisting(stmts)
}

func runSource(t *testing.T, src string) Value {
	t.Helper()
	chunk := compileSource(t, src)
	result, err := NewVM(chunk).Run()
	if err != nil {
		t.Fatalf("unexpected error running %q: %v", src, err)
	}
	return result
}

// TestEmptyArrayFirstAppendSpecializes guards against a regression where
// Builder.AppendValue on a ShapeEmpty store jumped straight to ShapeObject
// instead of specializing to the tightest shape the first real value
// supports.
func TestEmptyArrayFirstAppendSpecializes(t *testing.T) {
	result := runSource(t, `
		arr = []
		arr = push(arr, 1)
		return arr
	`)
	arr, ok := result.(*Array)
	if !ok {
		t.Fatalf("expected *Array, got %T", result)
	}
	if arr.Store.Shape() != arraystore.ShapeInt {
		t.Errorf("expected first append onto an empty array to specialize to ShapeInt, got %s", arr.Store.Shape())
	}
}

// TestPushRebuildsThroughExistingContent guards against a regression where
// push, implemented via Builder.Start (always a fresh scratch build), could
// silently drop an array's existing elements instead of re-absorbing them
// through AppendArray first.
func TestPushRebuildsThroughExistingContent(t *testing.T) {
	result := runSource(t, `
		arr = [1, 2, 3]
		arr = push(arr, 4)
		return arr
	`)
	arr := result.(*Array)
	if arr.Length != 4 {
		t.Fatalf("expected length 4 after push, got %d", arr.Length)
	}
	for i, want := range []float64{1, 2, 3, 4} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

// TestConcatBuiltin exercises the shared "concat" call site across two
// differently-shaped arrays, which must generalize rather than panic.
func TestConcatBuiltin(t *testing.T) {
	result := runSource(t, `
		a = [1, 2]
		b = ["x", "y"]
		return concat(a, b)
	`)
	arr := result.(*Array)
	if arr.Length != 4 {
		t.Fatalf("expected length 4, got %d", arr.Length)
	}
	if arr.Store.Shape() != arraystore.ShapeObject {
		t.Errorf("expected ShapeObject after mixing numbers and strings, got %s", arr.Store.Shape())
	}
}

// TestArrayMethodCallDispatchesToSameBuiltin checks that `arr.push(v)`
// (BoundMethod dispatch) and `push(arr, v)` (ordinary call) share one
// implementation and one specialization history.
func TestArrayMethodCallDispatchesToSameBuiltin(t *testing.T) {
	result := runSource(t, `
		arr = [1, 2]
		arr = arr.push(3)
		return arr
	`)
	arr := result.(*Array)
	if arr.Length != 3 || arr.At(2) != 3.0 {
		t.Fatalf("expected [1, 2, 3], got length=%d last=%v", arr.Length, arr.At(arr.Length-1))
	}
}

// TestMapBuiltinCallsBackIntoUserFunction exercises builtinMap's use of
// vm.invoke to re-enter the step loop for a user-defined Sentra function.
func TestMapBuiltinCallsBackIntoUserFunction(t *testing.T) {
	result := runSource(t, `
		fn double(x) {
			return x * 2
		}
		arr = [1, 2, 3]
		return map(arr, double)
	`)
	arr := result.(*Array)
	for i, want := range []float64{2, 4, 6} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

// TestFilterBuiltinKeepsTruthyElements exercises builtinFilter end to end.
func TestFilterBuiltinKeepsTruthyElements(t *testing.T) {
	result := runSource(t, `
		fn isEven(x) {
			return x % 2 == 0
		}
		arr = [1, 2, 3, 4, 5, 6]
		return filter(arr, isEven)
	`)
	arr := result.(*Array)
	if arr.Length != 3 {
		t.Fatalf("expected length 3, got %d", arr.Length)
	}
	for i, want := range []float64{2, 4, 6} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

// TestArrayFromBuildsWithoutLiteral exercises the dynamic-arity construction
// path with no array literal anywhere in the source.
func TestArrayFromBuildsWithoutLiteral(t *testing.T) {
	result := runSource(t, `
		fn square(i) {
			return i * i
		}
		return arrayFrom(5, square)
	`)
	arr := result.(*Array)
	if arr.Length != 5 {
		t.Fatalf("expected length 5, got %d", arr.Length)
	}
	for i, want := range []float64{0, 1, 4, 9, 16} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

// TestRecursiveFunctionViaHoisting exercises HoistingCompiler's forward
// reference support: fib calls itself before its own global definition is
// reachable in source order otherwise.
func TestRecursiveFunctionViaHoisting(t *testing.T) {
	result := runSource(t, `
		fn fib(n) {
			if (n < 2) {
				return n
			}
			return fib(n - 1) + fib(n - 2)
		}
		return fib(10)
	`)
	if result != 55.0 {
		t.Errorf("expected fib(10) == 55, got %v", result)
	}
}

// TestGeneralizingPushUnderRealTracer checks that a single generalizing
// push leaves the array engine's final shape consistent across a run when a
// real tracer (not a no-op) is observing transitions.
func TestGeneralizingPushUnderRealTracer(t *testing.T) {
	chunk := compileSource(t, `
		arr = [1, 2, 3]
		arr = push(arr, "oops")
		return arr
	`)
	tracer := arraytrace.New(zap.NewNop())
	machine := NewVMWithConfig(chunk, arrayconfig.Default(), tracer)
	result, err := machine.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr := result.(*Array)
	if arr.Store.Shape() != arraystore.ShapeObject {
		t.Fatalf("expected generalization to ShapeObject, got %s", arr.Store.Shape())
	}
}
