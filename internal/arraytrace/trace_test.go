package arraytrace

import (
	"testing"

	"arrayspec/internal/arraystore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTracerCountsPerSite(t *testing.T) {
	tracer := New(zap.NewNop())
	hook := tracer.Hook()

	site := NewSiteID()
	other := NewSiteID()

	hook(Transition{Site: site, From: arraystore.ShapeEmpty, To: arraystore.ShapeInt})
	hook(Transition{Site: site, From: arraystore.ShapeInt, To: arraystore.ShapeObject})
	hook(Transition{Site: other, From: arraystore.ShapeEmpty, To: arraystore.ShapeDouble})

	assert.EqualValues(t, 2, tracer.Count(site))
	assert.EqualValues(t, 1, tracer.Count(other))
	assert.EqualValues(t, 0, tracer.Count(uuid.New()))
}
