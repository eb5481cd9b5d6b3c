package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_RoundTrip(t *testing.T) {
	ctx := WithRequest(context.Background(), Request{ID: "r-1", TraceID: "t-1", Operator: "till-3"})

	r, ok := RequestFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t-1", r.TraceID)
	assert.Equal(t, "r-1", RequestID(ctx))
	assert.Equal(t, "till-3", Operator(ctx))
}

func TestRequest_Missing(t *testing.T) {
	_, ok := RequestFrom(context.Background())
	assert.False(t, ok)
	assert.Empty(t, RequestID(context.Background()))
	assert.Empty(t, Operator(context.Background()))
}
