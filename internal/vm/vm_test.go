package vm

import (
	"math"
	"testing"

	"arrayspec/internal/arraystore"
	"arrayspec/internal/bytecode"
)

// chunk is a small builder for hand-assembled test chunks, in the style of
// the table-driven opcode tests the original VM suite used.
type chunk struct {
	c *bytecode.Chunk
}

func newChunk() *chunk {
	return &chunk{c: &bytecode.Chunk{}}
}

func (b *chunk) op(op bytecode.OpCode) *chunk {
	b.c.Code = append(b.c.Code, byte(op))
	return b
}

func (b *chunk) byte(v byte) *chunk {
	b.c.Code = append(b.c.Code, v)
	return b
}

func (b *chunk) short(n int) *chunk {
	b.c.Code = append(b.c.Code, byte(n>>8), byte(n&0xff))
	return b
}

func (b *chunk) constant(v interface{}) *chunk {
	idx := b.c.AddConstant(v)
	b.op(bytecode.OpConstant).byte(byte(idx))
	return b
}

func (b *chunk) build() *bytecode.Chunk { return b.c }

func runChunk(t *testing.T, c *bytecode.Chunk) Value {
	t.Helper()
	result, err := NewVM(c).Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *bytecode.Chunk
		expected float64
	}{
		{
			name: "addition",
			build: func() *bytecode.Chunk {
				return newChunk().constant(10.0).constant(20.0).op(bytecode.OpAdd).op(bytecode.OpReturn).build()
			},
			expected: 30,
		},
		{
			name: "subtraction",
			build: func() *bytecode.Chunk {
				return newChunk().constant(50.0).constant(20.0).op(bytecode.OpSub).op(bytecode.OpReturn).build()
			},
			expected: 30,
		},
		{
			name: "multiplication",
			build: func() *bytecode.Chunk {
				return newChunk().constant(5.0).constant(6.0).op(bytecode.OpMul).op(bytecode.OpReturn).build()
			},
			expected: 30,
		},
		{
			name: "division",
			build: func() *bytecode.Chunk {
				return newChunk().constant(60.0).constant(2.0).op(bytecode.OpDiv).op(bytecode.OpReturn).build()
			},
			expected: 30,
		},
		{
			name: "modulo",
			build: func() *bytecode.Chunk {
				return newChunk().constant(17.0).constant(5.0).op(bytecode.OpMod).op(bytecode.OpReturn).build()
			},
			expected: 2,
		},
		{
			name: "negation",
			build: func() *bytecode.Chunk {
				return newChunk().constant(42.0).op(bytecode.OpNegate).op(bytecode.OpReturn).build()
			},
			expected: -42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runChunk(t, tt.build())
			got, ok := result.(float64)
			if !ok {
				t.Fatalf("expected float64, got %T", result)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	c := newChunk().constant(1.0).constant(0.0).op(bytecode.OpDiv).op(bytecode.OpReturn).build()
	_, err := NewVM(c).Run()
	if err == nil {
		t.Fatal("expected an error dividing by zero")
	}
}

func TestStringConcat(t *testing.T) {
	c := newChunk().constant("foo").constant("bar").op(bytecode.OpConcat).op(bytecode.OpReturn).build()
	result := runChunk(t, c)
	if result != "foobar" {
		t.Errorf("expected \"foobar\", got %v", result)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		op   bytecode.OpCode
		a, b float64
		want bool
	}{
		{"less true", bytecode.OpLess, 1, 2, true},
		{"less false", bytecode.OpLess, 2, 1, false},
		{"greater true", bytecode.OpGreater, 2, 1, true},
		{"equal true", bytecode.OpEqual, 3, 3, true},
		{"not equal true", bytecode.OpNotEqual, 3, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChunk().constant(tt.a).constant(tt.b).op(tt.op).op(bytecode.OpReturn).build()
			result := runChunk(t, c)
			if result != tt.want {
				t.Errorf("expected %v, got %v", tt.want, result)
			}
		})
	}
}

// TestArrayLiteralSpecializes exercises OpArray (the fixed-arity literal
// site): an all-integer literal must come out Int-shaped, not Object.
func TestArrayLiteralSpecializes(t *testing.T) {
	c := newChunk().
		constant(1.0).constant(2.0).constant(3.0).
		op(bytecode.OpArray).short(3).
		op(bytecode.OpReturn).
		build()

	result := runChunk(t, c)
	arr, ok := result.(*Array)
	if !ok {
		t.Fatalf("expected *Array, got %T", result)
	}
	if arr.Length != 3 {
		t.Fatalf("expected length 3, got %d", arr.Length)
	}
	if shape := arr.Store.Shape(); shape != arraystore.ShapeInt {
		t.Errorf("expected ShapeInt, got %s", shape)
	}
	for i, want := range []float64{1, 2, 3} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

// TestArrayLiteralGeneralizesToObject mixes a string into an otherwise
// numeric literal, which must force the whole site to Object.
func TestArrayLiteralGeneralizesToObject(t *testing.T) {
	c := newChunk().
		constant(1.0).constant("two").constant(3.0).
		op(bytecode.OpArray).short(3).
		op(bytecode.OpReturn).
		build()

	result := runChunk(t, c)
	arr := result.(*Array)
	if shape := arr.Store.Shape(); shape != arraystore.ShapeObject {
		t.Errorf("expected ShapeObject, got %s", shape)
	}
}

// TestBuildListWithSpread exercises OpBuildList/OpSpread: `[...a, 4]` style
// incremental construction flattening an existing array in.
func TestBuildListWithSpread(t *testing.T) {
	// First build the source array [1, 2, 3] via OpArray, then spread it
	// into a new list alongside a fourth element.
	c := newChunk()
	c.constant(1.0).constant(2.0).constant(3.0).op(bytecode.OpArray).short(3)
	c.op(bytecode.OpSpread)
	c.constant(4.0)
	c.op(bytecode.OpBuildList).short(2)
	c.op(bytecode.OpReturn)

	result := runChunk(t, c.build())
	arr := result.(*Array)
	if arr.Length != 4 {
		t.Fatalf("expected length 4, got %d", arr.Length)
	}
	for i, want := range []float64{1, 2, 3, 4} {
		if got := arr.At(i); got != want {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestGlobals(t *testing.T) {
	c := newChunk()
	nameIdx := c.c.AddConstant("x")
	c.constant(99.0)
	c.op(bytecode.OpDefineGlobal).byte(byte(nameIdx))
	c.op(bytecode.OpGetGlobal).byte(byte(nameIdx))
	c.op(bytecode.OpReturn)

	result := runChunk(t, c.build())
	if result != 99.0 {
		t.Errorf("expected 99, got %v", result)
	}
}

func TestIndexArray(t *testing.T) {
	c := newChunk()
	c.constant(10.0).constant(20.0).constant(30.0).op(bytecode.OpArray).short(3)
	c.constant(1.0)
	c.op(bytecode.OpIndex)
	c.op(bytecode.OpReturn)

	result := runChunk(t, c.build())
	if result != 20.0 {
		t.Errorf("expected 20, got %v", result)
	}
}

func TestTryCatchRecoversThrow(t *testing.T) {
	c := newChunk()
	c.op(bytecode.OpTry)
	shortAt := len(c.c.Code)
	c.short(0) // patched below once the catch target is known
	ipAfterShort := len(c.c.Code)
	c.constant("boom")
	c.op(bytecode.OpThrow)
	catchIP := len(c.c.Code)
	c.op(bytecode.OpReturn) // the thrown value is on the stack when we land here

	offset := catchIP - ipAfterShort
	c.c.Code[shortAt] = byte(offset >> 8)
	c.c.Code[shortAt+1] = byte(offset & 0xff)

	result := runChunk(t, c.build())
	s, ok := result.(string)
	if !ok {
		t.Fatalf("expected the thrown string, got %T (%v)", result, result)
	}
	if s != "boom" {
		t.Errorf("expected \"boom\", got %q", s)
	}
}
