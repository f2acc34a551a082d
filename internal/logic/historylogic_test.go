package logic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/internal/svc"
)

func TestHistory_EmptyWhenNoClosedPositions(t *testing.T) {
	svcCtx := &svc.ServiceContext{Engine: newTestEngine(t)}
	l := NewHistoryLogic(context.Background(), svcCtx)

	resp, err := l.History()
	require.NoError(t, err)
	assert.Empty(t, resp.ClosedPositions)
}
