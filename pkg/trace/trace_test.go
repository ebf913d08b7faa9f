package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "t-1")
	assert.Equal(t, "t-1", FromContext(ctx))
	assert.Empty(t, FromContext(context.Background()))
}

func TestFromHeaders(t *testing.T) {
	assert.Equal(t, "a", FromHeaders("a", "b"))
	assert.Equal(t, "b", FromHeaders("", "b"))

	generated := FromHeaders("", "")
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
}
