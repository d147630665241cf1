package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavewatch/internal/models"
	"wavewatch/internal/services/indicators"
	"wavewatch/internal/services/wave"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candlesFrom(closes []float64, spread float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			OpenTime:  t0.Add(time.Duration(i) * time.Minute),
			CloseTime: t0.Add(time.Duration(i+1)*time.Minute - time.Millisecond),
			Open:      c,
			High:      c + spread,
			Low:       c - spread,
			Close:     c,
			Volume:    10,
		}
	}
	return out
}

func ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func orderFlowParams() Params {
	p := DefaultParams()
	p.Strategy = NameOrderFlow
	return p
}

var (
	buyerPrint  = []models.Trade{{ID: 1, Price: 961, Quantity: 2, BuyerInitiated: true}}
	sellerPrint = []models.Trade{{ID: 2, Price: 961, Quantity: 2, BuyerInitiated: false}}
)

func TestOrderFlow_BuyAtSupport(t *testing.T) {
	candles := candlesFrom(ramp(1000, -1, 40), 0.5)

	sig, err := NewEvaluator(orderFlowParams()).Evaluate("BTCUSDT", candles, buyerPrint)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionBuy, sig.Direction)
	assert.Equal(t, LabelOrderFlowBuy, sig.Label)
	assert.Equal(t, NameOrderFlow, sig.Strategy)
	assert.Equal(t, 961.0, sig.Entry)
	assert.InDelta(t, 960.5*0.995, sig.StopLoss, 1e-9)
	assert.InDelta(t, 961+2*(961-960.5*0.995), sig.TakeProfit, 1e-9)
	assert.Equal(t, 0.0, sig.Indicators.RSI)
	assert.Equal(t, 2.0, sig.Indicators.Delta)
	assert.Equal(t, 960.5, sig.Indicators.Support)
	assert.Equal(t, candles[39].CloseTime, sig.Time)
}

func TestOrderFlow_SellAtResistance(t *testing.T) {
	candles := candlesFrom(ramp(1000, 1, 40), 0.5)

	sig, err := NewEvaluator(orderFlowParams()).Evaluate("ETHUSDT", candles, sellerPrint)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionSell, sig.Direction)
	assert.Equal(t, LabelOrderFlowSell, sig.Label)
	assert.InDelta(t, 1039.5*1.005, sig.StopLoss, 1e-9)
	assert.Less(t, sig.TakeProfit, sig.Entry)
	assert.Equal(t, 100.0, sig.Indicators.RSI)
}

func TestOrderFlow_NeutralWhenDeltaDisagrees(t *testing.T) {
	candles := candlesFrom(ramp(1000, -1, 40), 0.5)

	sig, err := NewEvaluator(orderFlowParams()).Evaluate("BTCUSDT", candles, sellerPrint)
	require.NoError(t, err)
	assert.Equal(t, models.DirectionNeutral, sig.Direction)
	assert.Equal(t, LabelScanning, sig.Label)
	assert.False(t, sig.IsActionable())
	assert.Zero(t, sig.Entry)
}

func TestOrderFlow_WhaleFilterDropsSmallPrints(t *testing.T) {
	candles := candlesFrom(ramp(1000, -1, 40), 0.5)
	params := orderFlowParams()
	params.MinNotional = 10000

	sig, err := NewEvaluator(params).Evaluate("BTCUSDT", candles, buyerPrint)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sig.Indicators.Delta)
	assert.Equal(t, models.DirectionNeutral, sig.Direction)
}

func TestEvaluate_Idempotent(t *testing.T) {
	candles := candlesFrom(ramp(1000, -1, 40), 0.5)
	e := NewEvaluator(orderFlowParams())

	first, err := e.Evaluate("BTCUSDT", candles, buyerPrint)
	require.NoError(t, err)
	second, err := e.Evaluate("BTCUSDT", candles, buyerPrint)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_InsufficientData(t *testing.T) {
	candles := candlesFrom(ramp(100, 1, 10), 0.5)

	for _, name := range []string{NameOrderFlow, NameWave} {
		p := DefaultParams()
		p.Strategy = name
		_, err := NewEvaluator(p).Evaluate("BTCUSDT", candles, nil)

		var dataErr *indicators.InsufficientDataError
		assert.True(t, errors.As(err, &dataErr), name)
	}
}

func TestEvaluate_UnknownStrategy(t *testing.T) {
	p := DefaultParams()
	p.Strategy = "martingale"
	_, err := NewEvaluator(p).Evaluate("BTCUSDT", candlesFrom(ramp(100, 1, 40), 0.5), nil)
	assert.Error(t, err)
}

// zigzag interpolates between turning points with legs of four bars.
func zigzag(points ...float64) []float64 {
	out := []float64{points[0]}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		for k := 1; k <= 4; k++ {
			out = append(out, a+(b-a)*float64(k)/4)
		}
	}
	return out
}

func TestWave_Explosion(t *testing.T) {
	closes := zigzag(95, 90, 100, 93.8, 110, 104, 108, 105)
	candles := candlesFrom(closes, 0)

	p := DefaultParams()
	p.PivotRadius = 2
	p.SRWindow = 10

	sig, err := NewEvaluator(p).Evaluate("SOLUSDT", candles, nil)
	require.NoError(t, err)

	assert.Equal(t, NameWave, sig.Strategy)
	assert.Equal(t, wave.LabelWave3Explosion, sig.Label)
	assert.Equal(t, models.DirectionBuy, sig.Direction)
	assert.InDelta(t, 105.0, sig.Entry, 1e-9)
	assert.InDelta(t, 121.18, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 93.8*0.995, sig.StopLoss, 1e-9)
	assert.InDelta(t, 104.0, sig.Indicators.Support, 1e-9)
	assert.InDelta(t, 108.0, sig.Indicators.Resistance, 1e-9)
}

func TestWave_NotEnoughPivots(t *testing.T) {
	candles := candlesFrom(ramp(100, 1, 40), 0.5)

	sig, err := NewEvaluator(DefaultParams()).Evaluate("SOLUSDT", candles, nil)
	require.NoError(t, err)
	assert.Equal(t, wave.LabelNotEnoughData, sig.Label)
	assert.Equal(t, models.DirectionNeutral, sig.Direction)
}

func TestParseName(t *testing.T) {
	name, err := ParseName(" OrderFlow ")
	require.NoError(t, err)
	assert.Equal(t, NameOrderFlow, name)

	name, err = ParseName("elliott")
	require.NoError(t, err)
	assert.Equal(t, NameWave, name)

	_, err = ParseName("grid")
	assert.Error(t, err)
}
