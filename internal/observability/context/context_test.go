package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorDefaultsToSystem(t *testing.T) {
	id, role := ActorFromContext(context.Background())
	assert.Equal(t, ActorSystem, id)
	assert.Empty(t, role)

	ctx := WithActor(context.Background(), "42", "admin")
	id, role = ActorFromContext(ctx)
	assert.Equal(t, "42", id)
	assert.Equal(t, "admin", role)
}

func TestBlankValuesAreIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithRequestID(ctx, "   ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, IPAddressFromContext(ctx))
}
