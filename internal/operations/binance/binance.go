package binance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wavewatch/internal/models"
)

const (
	MarketSpot    = "spot"
	MarketFutures = "futures"
)

// Binance error codes worth retrying: too many requests, too many orders.
const (
	codeTooManyRequests = -1003
	codeTooManyOrders   = -1015
)

type Config struct {
	Market    string
	APIKey    string
	SecretKey string
	BaseURL   string // overrides the market endpoint, used by tests

	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	Backoff           time.Duration
}

func DefaultConfig() Config {
	return Config{
		Market:            MarketSpot,
		RequestsPerSecond: 10,
		Burst:             20,
		MaxRetries:        3,
		Backoff:           100 * time.Millisecond,
	}
}

// marketAPI is the slice of the exchange client the monitor needs.
type marketAPI interface {
	klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	trades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
}

// BinanceClient fetches candles and recent trades. All calls share one
// rate limiter, so a single client is safe to use from several workers.
type BinanceClient struct {
	api         marketAPI
	rateLimiter *rate.Limiter
	maxRetries  int
	backoff     time.Duration
	log         zerolog.Logger
}

func NewBinanceClient(cfg Config, log zerolog.Logger) (*BinanceClient, error) {
	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var api marketAPI
	switch cfg.Market {
	case MarketSpot, "":
		c := gobinance.NewClient(cfg.APIKey, cfg.SecretKey)
		c.HTTPClient = httpClient
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		api = &spotAPI{client: c}
	case MarketFutures:
		c := futures.NewClient(cfg.APIKey, cfg.SecretKey)
		c.HTTPClient = httpClient
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		api = &futuresAPI{client: c}
	default:
		return nil, fmt.Errorf("unknown binance market %q", cfg.Market)
	}

	return newClient(api, cfg, log), nil
}

func newClient(api marketAPI, cfg Config, log zerolog.Logger) *BinanceClient {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &BinanceClient{
		api:         api,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.Backoff,
		log:         log.With().Str("component", "binance").Logger(),
	}
}

// GetCandles returns the most recent limit candles, oldest first.
func (c *BinanceClient) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var candles []models.Candle
	err := c.withRetry(ctx, "klines", symbol, func() error {
		var err error
		candles, err = c.api.klines(ctx, symbol, interval, limit)
		return err
	})
	return candles, err
}

// GetRecentTrades returns up to limit recent trades, oldest first.
func (c *BinanceClient) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := c.withRetry(ctx, "trades", symbol, func() error {
		var err error
		trades, err = c.api.trades(ctx, symbol, limit)
		return err
	})
	return trades, err
}

func (c *BinanceClient) withRetry(ctx context.Context, op, symbol string, call func() error) error {
	for attempt := 0; ; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return &ProviderError{Op: op, Symbol: symbol, Err: err}
		}

		err := call()
		if err == nil {
			return nil
		}

		if attempt >= c.maxRetries || !retryable(err) {
			return &ProviderError{Op: op, Symbol: symbol, Err: err}
		}

		// Calculate backoff duration with exponential increase
		waitTime := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		c.log.Debug().Err(err).Str("symbol", symbol).Str("op", op).
			Int("attempt", attempt+1).Dur("backoff", waitTime).Msg("retrying binance call")

		select {
		case <-ctx.Done():
			return &ProviderError{Op: op, Symbol: symbol, Err: ctx.Err()}
		case <-time.After(waitTime):
		}
	}
}

// retryable reports whether a failed call may succeed on a later attempt.
// Binance rejections (bad symbol, bad interval) are final; rate limiting
// and transport failures are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 0, codeTooManyRequests, codeTooManyOrders:
			return true
		}
		return false
	}
	var parseErr *parseError
	return !errors.As(err, &parseErr)
}
