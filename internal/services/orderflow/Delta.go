// Package orderflow aggregates recent trade prints by aggressor side.
package orderflow

import (
	"github.com/shopspring/decimal"

	"wavewatch/internal/models"
)

type Summary struct {
	BuyVolume  float64
	SellVolume float64
	Delta      float64
	Trades     int // trades counted after the notional filter
}

// Analyze sums buyer-initiated and seller-initiated quantity. Trades whose
// notional (price * quantity) is below minNotional are ignored; a
// minNotional of zero keeps every trade.
func Analyze(trades []models.Trade, minNotional float64) Summary {
	buy, sell := decimal.Zero, decimal.Zero
	threshold := decimal.NewFromFloat(minNotional)
	counted := 0

	for _, t := range trades {
		qty := decimal.NewFromFloat(t.Quantity)
		if minNotional > 0 && decimal.NewFromFloat(t.Price).Mul(qty).LessThan(threshold) {
			continue
		}
		if t.BuyerInitiated {
			buy = buy.Add(qty)
		} else {
			sell = sell.Add(qty)
		}
		counted++
	}

	return Summary{
		BuyVolume:  buy.InexactFloat64(),
		SellVolume: sell.InexactFloat64(),
		Delta:      buy.Sub(sell).InexactFloat64(),
		Trades:     counted,
	}
}

// Delta is buy volume minus sell volume over all trades. Positive means
// net buying pressure.
func Delta(trades []models.Trade) float64 {
	return Analyze(trades, 0).Delta
}

// CandleDelta estimates delta from a kline's taker buy volume, for replays
// where individual trades are not available.
func CandleDelta(c models.Candle) float64 {
	buy := decimal.NewFromFloat(c.TakerBuyVolume)
	total := decimal.NewFromFloat(c.Volume)
	return buy.Sub(total.Sub(buy)).InexactFloat64()
}
