package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradesmart-api/internal/config"
	"tradesmart-api/pkg/domain"
)

func TestNewMirror_DegradesToNoopWithoutStores(t *testing.T) {
	m := NewMirror(config.Config{})

	// None of these should panic even though nothing is configured.
	m.OnPositionOpened(context.Background(), domain.Position{})
	m.OnPositionClosed(context.Background(), domain.Position{}, domain.Wallet{})
	m.OnWalletSnapshot(context.Background(), domain.Wallet{})
	m.CacheState(context.Background(), domain.EngineState{})

	_, ok := m.CachedState(context.Background())
	assert.False(t, ok)

	m.Close()
}
