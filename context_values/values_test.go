package context_values

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionId(t *testing.T) {
	_, err := ExecutionIdFromContext(context.Background())
	assert.Error(t, err)

	ctx := WithExecutionId(context.Background(), "run-1")
	id, err := ExecutionIdFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
}
