package arraysite

import (
	"testing"

	"arrayspec/internal/arrayconfig"
	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *Builder {
	return NewBuilder(uuid.New(), arrayconfig.Default(), nil)
}

// TestBuilderAllIntStaysInt is scenario 5: start, appendValue(1),
// appendValue(2), finish -> Int [1, 2].
func TestBuilderAllIntStaysInt(t *testing.T) {
	b := newTestBuilder()
	store, n := b.Start()
	store, n = b.AppendValue(store, n, int32(1))
	store, n = b.AppendValue(store, n, int32(2))
	store = b.Finish(store, n)

	assert.Equal(t, arraystore.ShapeInt, store.Shape())
	assert.Equal(t, []arraystore.Value{int32(1), int32(2)}, store.ToSliceCopy(n))
}

// TestBuilderMixedIntAndFloatGeneralizesToObject is scenario 6: start,
// appendValue(1), appendValue(1.5), finish -> Object [1, 1.5].
func TestBuilderMixedIntAndFloatGeneralizesToObject(t *testing.T) {
	b := newTestBuilder()
	store, n := b.Start()
	store, n = b.AppendValue(store, n, int32(1))
	store, n = b.AppendValue(store, n, 1.5)
	store = b.Finish(store, n)

	assert.Equal(t, arraystore.ShapeObject, store.Shape())
	assert.Equal(t, []arraystore.Value{int32(1), 1.5}, store.ToSliceCopy(n))
}

// TestBuilderLengthOverflowDespecializes is scenario 7: a builder
// pre-specialized to Int with a small expected length is asked to start a
// much larger build; it de-specialises for that build but still lands back
// on Int once every value turns out to fit.
func TestBuilderLengthOverflowDespecializes(t *testing.T) {
	b := newTestBuilder()

	// Establish the Int specialization with a small expected length.
	store, n := b.Start()
	store, n = b.AppendValue(store, n, int32(1))
	store = b.Finish(store, n)
	require.Equal(t, arraystore.ShapeInt, store.Shape())
	require.Equal(t, 1, n)

	// Now request a build far larger than the learned expected length.
	store, n = b.StartLength(1000)
	for i := 0; i < 1000; i++ {
		store, n = b.AppendValue(store, n, int32(i))
	}
	store = b.Finish(store, n)

	assert.Equal(t, arraystore.ShapeInt, store.Shape())
	assert.Equal(t, 1000, n)
	assert.Equal(t, int32(999), store.Read(999))
}

// TestBuilderAppendArrayWidensIntToLong is scenario 8: appendArray(Int store
// [1, 2], Long source [3, 4, 5]) -> Long [1, 2, 3, 4, 5].
func TestBuilderAppendArrayWidensIntToLong(t *testing.T) {
	b := newTestBuilder()

	intStore := arraystore.NewIntStore(2)
	intStore.Write(0, int32(1))
	intStore.Write(1, int32(2))

	longSource := arraystore.NewLongStore(3)
	longSource.Write(0, int64(3))
	longSource.Write(1, int64(4))
	longSource.Write(2, int64(5))

	// Put the builder in the "specialized" phase by forcing the controller
	// to Int first, matching a builder that already committed to Int.
	b.ctrl.transitionTo(arraystore.ShapeInt)
	b.phase = phaseSpecialized

	widened, n := b.AppendArray(intStore, 2, longSource, 3)

	assert.Equal(t, arraystore.ShapeLong, widened.Shape())
	assert.Equal(t, 5, n)
	assert.Equal(t, []arraystore.Value{int64(1), int64(2), int64(3), int64(4), int64(5)}, widened.ToSliceCopy(n))
	assert.Equal(t, arraystore.ShapeLong, b.Controller().Shape())
}

func TestBuilderEmptyFinishReturnsSharedSentinel(t *testing.T) {
	b := newTestBuilder()
	store, n := b.Start()
	store = b.Finish(store, n)
	assert.Same(t, arraystore.EmptySentinel(), store)
}

func TestBuilderEnsureIsIdentityWhenCapacitySuffices(t *testing.T) {
	b := newTestBuilder()
	store := arraystore.NewIntStore(8)
	got := b.Ensure(store, 3, 8)
	assert.Same(t, store, got)
}

func TestBuilderEnsureGrowsWhenNeeded(t *testing.T) {
	b := newTestBuilder()
	store := arraystore.NewIntStore(2)
	store.Write(0, int32(1))
	store.Write(1, int32(2))

	grown := b.Ensure(store, 2, 10)
	assert.GreaterOrEqual(t, grown.Capacity(), 10)
	assert.Equal(t, []arraystore.Value{int32(1), int32(2)}, grown.ToSliceCopy(2))
}

func TestBuilderObjectVariantTracksSeenShapes(t *testing.T) {
	b := newTestBuilder()
	b.ctrl.transitionTo(arraystore.ShapeInt)
	store, n := b.Start()
	store, n = b.AppendValue(store, n, int32(1))
	store, n = b.AppendValue(store, n, "mixed") // forces Object
	require.Equal(t, arraystore.ShapeObject, store.Shape())

	intSource := arraystore.NewIntStore(1)
	intSource.Write(0, int32(42))
	store, n = b.AppendArray(store, n, intSource, 1)

	seenInt, _, _, seenObject := b.Seen()
	assert.True(t, seenInt)
	assert.False(t, seenObject)
	assert.Equal(t, []arraystore.Value{int32(1), "mixed", int32(42)}, store.ToSliceCopy(n))
}

// TestBuilderRoundTripIdempotence checks that building, reading every
// element back out, and rebuilding from those reads yields an equal store.
func TestBuilderRoundTripIdempotence(t *testing.T) {
	b := newTestBuilder()
	store, n := b.Start()
	for _, v := range []arraystore.Value{int32(4), int32(5), int32(6)} {
		store, n = b.AppendValue(store, n, v)
	}
	store = b.Finish(store, n)
	boxed := store.ToSliceCopy(n)

	b2 := newTestBuilder()
	store2, n2 := b2.Start()
	for _, v := range boxed {
		store2, n2 = b2.AppendValue(store2, n2, v)
	}
	store2 = b2.Finish(store2, n2)

	assert.Equal(t, store.Shape(), store2.Shape())
	assert.Equal(t, store.ToSliceCopy(n), store2.ToSliceCopy(n2))
}
