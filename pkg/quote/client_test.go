package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCandles_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC/USD", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"values":[
			{"datetime":"2024-01-02 00:00:00","open":"101","high":"102","low":"99","close":"100","volume":"10"},
			{"datetime":"2024-01-01 00:00:00","open":"90","high":"95","low":"89","close":"91","volume":"5"}
		]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	candles, err := c.FetchCandles(context.Background(), "BTC/USD", "1day", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, "100", candles[0].Close.String())
}

func TestFetchCandles_VendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"symbol not found"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.FetchCandles(context.Background(), "NOPE", "1day", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor_protocol")
}

func TestFetchCandles_EmptySymbol(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"})
	_, err := c.FetchCandles(context.Background(), "", "1day", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_input")
}

func TestFetchCandles_TransientFailureRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"values":[{"datetime":"2024-01-01 00:00:00","open":"1","high":"1","low":"1","close":"1","volume":"1"}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	candles, err := c.FetchCandles(context.Background(), "BTC/USD", "1min", 1)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2, attempts)
}
