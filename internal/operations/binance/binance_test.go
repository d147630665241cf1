package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavewatch/internal/models"
)

type fakeAPI struct {
	failures int
	err      error
	calls    int
}

func (f *fakeAPI) klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []models.Candle{{Close: 1}}, nil
}

func (f *fakeAPI) trades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []models.Trade{{ID: 1}}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = time.Millisecond
	cfg.RequestsPerSecond = 1000
	return cfg
}

func TestWithRetry_RecoversFromTransientError(t *testing.T) {
	api := &fakeAPI{failures: 2, err: errors.New("connection reset")}
	client := newClient(api, testConfig(), zerolog.Nop())

	candles, err := client.GetCandles(context.Background(), "BTCUSDT", "1m", 10)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, 3, api.calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	api := &fakeAPI{failures: 10, err: errors.New("connection reset")}
	client := newClient(api, testConfig(), zerolog.Nop())

	_, err := client.GetRecentTrades(context.Background(), "BTCUSDT", 10)
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "trades", provErr.Op)
	assert.Equal(t, "BTCUSDT", provErr.Symbol)
	assert.Equal(t, 4, api.calls)
}

func TestWithRetry_APIRejectionIsFinal(t *testing.T) {
	api := &fakeAPI{failures: 10, err: &common.APIError{Code: -1121, Message: "Invalid symbol."}}
	client := newClient(api, testConfig(), zerolog.Nop())

	_, err := client.GetCandles(context.Background(), "NOPE", "1m", 10)
	require.Error(t, err)
	assert.Equal(t, 1, api.calls)

	var apiErr *common.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestWithRetry_RateLimitedIsRetried(t *testing.T) {
	api := &fakeAPI{failures: 1, err: &common.APIError{Code: codeTooManyRequests, Message: "Too many requests."}}
	client := newClient(api, testConfig(), zerolog.Nop())

	_, err := client.GetCandles(context.Background(), "BTCUSDT", "1m", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestWithRetry_CancelledContext(t *testing.T) {
	api := &fakeAPI{failures: 10, err: errors.New("timeout")}
	client := newClient(api, testConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetCandles(ctx, "BTCUSDT", "1m", 10)

	var provErr *ProviderError
	assert.True(t, errors.As(err, &provErr))
	assert.Equal(t, 0, api.calls)
}

func TestSpotClient_ParsesResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/klines":
			assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "5m", r.URL.Query().Get("interval"))
			_, _ = w.Write([]byte(`[
				[1700000000000,"100.0","110.5","95.25","105.0","12.5",1700000299999,"1300.0",42,"7.5","780.0","0"]
			]`))
		case "/api/v3/trades":
			_, _ = w.Write([]byte(`[
				{"id":1,"price":"105.0","qty":"0.5","quoteQty":"52.5","time":1700000001000,"isBuyerMaker":true,"isBestMatch":true},
				{"id":2,"price":"105.5","qty":"1.5","quoteQty":"158.25","time":1700000002000,"isBuyerMaker":false,"isBestMatch":true}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.BaseURL = server.URL
	client, err := NewBinanceClient(cfg, zerolog.Nop())
	require.NoError(t, err)

	candles, err := client.GetCandles(context.Background(), "ETHUSDT", "5m", 1)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	c := candles[0]
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 110.5, c.High)
	assert.Equal(t, 95.25, c.Low)
	assert.Equal(t, 105.0, c.Close)
	assert.Equal(t, 12.5, c.Volume)
	assert.Equal(t, 7.5, c.TakerBuyVolume)
	assert.Equal(t, time.UnixMilli(1700000299999).UTC(), c.CloseTime)

	trades, err := client.GetRecentTrades(context.Background(), "ETHUSDT", 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.False(t, trades[0].BuyerInitiated)
	assert.True(t, trades[1].BuyerInitiated)
	assert.Equal(t, 1.5, trades[1].Quantity)
}

func TestNewBinanceClient_UnknownMarket(t *testing.T) {
	cfg := testConfig()
	cfg.Market = "options"
	_, err := NewBinanceClient(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestParseFloat(t *testing.T) {
	v, err := parseFloat("price", "")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parseFloat("price", "abc")
	var pe *parseError
	require.True(t, errors.As(err, &pe))
	assert.False(t, retryable(err))
}

func TestIntervalDuration(t *testing.T) {
	d, ok := IntervalDuration("15m")
	assert.True(t, ok)
	assert.Equal(t, 15*time.Minute, d)

	_, ok = IntervalDuration("7m")
	assert.False(t, ok)

	for iv, want := range map[string]time.Duration{
		"3d": 72 * time.Hour,
		"1w": 7 * 24 * time.Hour,
		"1M": 30 * 24 * time.Hour,
	} {
		d, ok := IntervalDuration(iv)
		assert.True(t, ok, iv)
		assert.Equal(t, want, d, iv)
	}
}
