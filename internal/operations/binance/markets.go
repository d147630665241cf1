package binance

import (
	"context"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"wavewatch/internal/models"
)

type spotAPI struct {
	client *gobinance.Client
}

func (a *spotAPI) klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	klines, err := a.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := toCandle(k.OpenTime, k.CloseTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.TakerBuyBaseAssetVolume)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (a *spotAPI) trades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	raw, err := a.client.NewRecentTradesService().
		Symbol(symbol).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(raw))
	for _, t := range raw {
		tr, err := toTrade(t.ID, t.Price, t.Quantity, t.Time, t.IsBuyerMaker)
		if err != nil {
			return nil, err
		}
		trades = append(trades, tr)
	}
	return trades, nil
}

type futuresAPI struct {
	client *futures.Client
}

func (a *futuresAPI) klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	klines, err := a.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := toCandle(k.OpenTime, k.CloseTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.TakerBuyBaseAssetVolume)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (a *futuresAPI) trades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	raw, err := a.client.NewRecentTradesService().
		Symbol(symbol).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(raw))
	for _, t := range raw {
		tr, err := toTrade(t.ID, t.Price, t.Quantity, t.Time, t.IsBuyerMaker)
		if err != nil {
			return nil, err
		}
		trades = append(trades, tr)
	}
	return trades, nil
}

func toCandle(openMs, closeMs int64, open, high, low, close, volume, takerBuy string) (models.Candle, error) {
	var c models.Candle
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", open, &c.Open},
		{"high", high, &c.High},
		{"low", low, &c.Low},
		{"close", close, &c.Close},
		{"volume", volume, &c.Volume},
		{"taker buy volume", takerBuy, &c.TakerBuyVolume},
	}
	for _, f := range fields {
		v, err := parseFloat(f.name, f.raw)
		if err != nil {
			return models.Candle{}, err
		}
		*f.dst = v
	}

	c.OpenTime = time.UnixMilli(openMs).UTC()
	c.CloseTime = time.UnixMilli(closeMs).UTC()
	return c, nil
}

// toTrade converts a Binance trade. IsBuyerMaker means the seller took
// liquidity, so the trade was seller-initiated.
func toTrade(id int64, price, qty string, timeMs int64, isBuyerMaker bool) (models.Trade, error) {
	p, err := parseFloat("price", price)
	if err != nil {
		return models.Trade{}, err
	}
	q, err := parseFloat("quantity", qty)
	if err != nil {
		return models.Trade{}, err
	}
	return models.Trade{
		ID:             id,
		Price:          p,
		Quantity:       q,
		BuyerInitiated: !isBuyerMaker,
		Time:           time.UnixMilli(timeMs).UTC(),
	}, nil
}

// parseFloat reads Binance's decimal strings. Empty fields read as zero.
func parseFloat(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &parseError{field: field, value: s, err: err}
	}
	return d.InexactFloat64(), nil
}

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  3 * 24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour, // nominal, calendar months vary
}

// IntervalDuration returns the candle length of a Binance interval string.
func IntervalDuration(interval string) (time.Duration, bool) {
	d, ok := intervals[interval]
	return d, ok
}
