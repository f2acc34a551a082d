package logic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/internal/svc"
)

func TestHealth_ReportsOK(t *testing.T) {
	l := NewHealthLogic(context.Background(), &svc.ServiceContext{})

	resp, err := l.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}
