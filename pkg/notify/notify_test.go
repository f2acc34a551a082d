package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/pkg/domain"
)

func TestNew_NoopWhenUnconfigured(t *testing.T) {
	n := New(Config{})
	_, ok := n.(noopNotifier)
	assert.True(t, ok, "Notifier should degrade to no-op when WebhookURL is empty")

	// Should not panic even though there is nowhere to send.
	n.OnAlertAnalyzed(context.Background(), domain.Alert{}, domain.Verdict{})
}

func TestOnPositionOpened_PostsEmbed(t *testing.T) {
	received := make(chan payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(Config{WebhookURL: srv.URL, Username: "tradesmart"})

	pos := domain.Position{
		Symbol:          "BTC/USD",
		Direction:       domain.Long,
		EntryPrice:      decimal.NewFromInt(100),
		StopLoss:        decimal.NewFromInt(95),
		TakeProfit:      decimal.NewFromInt(110),
		PositionSizeUSD: decimal.NewFromInt(100),
		Leverage:        2,
		Confidence:      85,
		OpenedAt:        time.Now(),
	}
	n.OnPositionOpened(context.Background(), pos, domain.Wallet{AvailableBalance: decimal.NewFromInt(900)})

	select {
	case p := <-received:
		require.Len(t, p.Embeds, 1)
		assert.Contains(t, p.Embeds[0].Title, "BTC/USD")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook POST")
	}
}

func TestTruncateReasoning(t *testing.T) {
	short := "fits fine"
	assert.Equal(t, short, truncateReasoning(short))

	long := make([]rune, 1500)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateReasoning(string(long))
	assert.Equal(t, maxReasoningRunes+1, len([]rune(got)))
}
