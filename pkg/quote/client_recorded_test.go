package quote

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real FetchCandles call against
// the configured vendor. It skips by default if the cassette is absent
// and RECORD_CASSETTES != 1.
func TestClient_FetchCandles_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "quote_time_series.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	httpClient := &http.Client{Transport: r}
	client := New(Config{BaseURL: "https://quote.example.com", APIKey: "test-key"}, WithHTTPClient(httpClient))

	ctx := context.Background()
	candles, err := client.FetchCandles(ctx, "BTC/USD", "1day", 50)
	assert.NoError(t, err, "FetchCandles should not error")
	assert.NotEmpty(t, candles, "candles should not be empty")
}
