package arraysite

import (
	"testing"

	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s arraystore.Store, n int) []arraystore.Value {
	t.Helper()
	out := make([]arraystore.Value, n)
	for i := 0; i < n; i++ {
		out[i] = s.Read(i)
	}
	return out
}

// TestLiteralSiteScenarios covers the core literal-site scenarios: an
// all-int literal stays Int, one float widens straight to Double, a mixed
// numeric/string literal lands on Object, and an empty literal gets the
// shared Empty sentinel.
func TestLiteralSiteScenarios(t *testing.T) {
	tests := []struct {
		name      string
		values    []arraystore.Value
		wantShape arraystore.Shape
		want      []arraystore.Value
	}{
		{
			name:      "all small ints",
			values:    []arraystore.Value{int32(1), int32(2), int32(3)},
			wantShape: arraystore.ShapeInt,
			want:      []arraystore.Value{int32(1), int32(2), int32(3)},
		},
		{
			name:      "one float forces Double",
			values:    []arraystore.Value{int32(1), 2.5},
			wantShape: arraystore.ShapeDouble,
			want:      []arraystore.Value{1.0, 2.5},
		},
		{
			name:      "mixed numeric and string forces Object",
			values:    []arraystore.Value{int32(1), "two"},
			wantShape: arraystore.ShapeObject,
			want:      []arraystore.Value{int32(1), "two"},
		},
		{
			name:      "empty literal",
			values:    []arraystore.Value{},
			wantShape: arraystore.ShapeEmpty,
			want:      []arraystore.Value{},
		},
		{
			name:      "past-int32-range integers land on Long",
			values:    []arraystore.Value{int32(1), int64(1) << 40},
			wantShape: arraystore.ShapeLong,
			want:      []arraystore.Value{int64(1), int64(1) << 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := NewLiteralSite(uuid.New(), nil)
			store, n := site.Execute(tt.values)
			require.Equal(t, len(tt.values), n)
			assert.Equal(t, tt.wantShape, store.Shape())
			assert.Equal(t, tt.want, readAll(t, store, n))
		})
	}
}

// TestLiteralSiteGeneralizesOnMismatchWithoutReordering exercises the
// bytecode-host adaptation: all N values are already evaluated, so a
// mismatch mid-array boxes the already-written prefix plus the offending
// value and copies the remainder in, in order.
func TestLiteralSiteGeneralizesOnMismatchWithoutReordering(t *testing.T) {
	site := NewLiteralSite(uuid.New(), nil)

	// First execution specializes to Int.
	store, n := site.Execute([]arraystore.Value{int32(1), int32(2)})
	require.Equal(t, arraystore.ShapeInt, store.Shape())
	require.Equal(t, 2, n)

	// Second execution of the same site hits a string at index 1: the site
	// must fall back to Object, preserving order and all five values.
	values := []arraystore.Value{int32(9), "oops", int32(3), int32(4), int32(5)}
	store2, n2 := site.Execute(values)
	require.Equal(t, 5, n2)
	assert.Equal(t, arraystore.ShapeObject, store2.Shape())
	assert.Equal(t, values, readAll(t, store2, n2))
	assert.Equal(t, arraystore.ShapeObject, site.Controller().Shape())
}

// TestLiteralSiteTransitionsOnce repeats scenario 1 a hundred times at the
// same call site and asserts exactly one U -> Int transition fires.
func TestLiteralSiteTransitionsOnce(t *testing.T) {
	var transitions int
	site := NewLiteralSite(uuid.New(), func(_ uuid.UUID, from, to arraystore.Shape) {
		transitions++
		assert.Equal(t, arraystore.ShapeEmpty, from)
		assert.Equal(t, arraystore.ShapeInt, to)
	})

	for i := 0; i < 100; i++ {
		store, n := site.Execute([]arraystore.Value{int32(1), int32(2), int32(3)})
		require.Equal(t, arraystore.ShapeInt, store.Shape())
		require.Equal(t, 3, n)
	}

	assert.Equal(t, 1, transitions)
}

func TestLiteralSiteEmptyStaysEmptyAcrossRepeats(t *testing.T) {
	site := NewLiteralSite(uuid.New(), nil)
	for i := 0; i < 3; i++ {
		store, n := site.Execute(nil)
		assert.Equal(t, 0, n)
		assert.Same(t, arraystore.EmptySentinel(), store)
	}
}
