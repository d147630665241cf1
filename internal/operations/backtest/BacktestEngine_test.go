package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavewatch/internal/models"
	"wavewatch/internal/services/indicators"
	"wavewatch/internal/services/strategy"
)

// sellOff is a 40 bar decline with takers net buying on every bar, which
// ends on an order flow BUY at 961 (stop 955.6975, target 971.605).
func sellOff() []models.Candle {
	out := make([]models.Candle, 40)
	for i := range out {
		c := 1000 - float64(i)
		out[i] = models.Candle{
			CloseTime: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
			Open:      c, High: c + 0.5, Low: c - 0.5, Close: c,
			Volume: 10, TakerBuyVolume: 7,
		}
	}
	return out
}

func withBar(candles []models.Candle, high, low, close float64) []models.Candle {
	return append(candles, models.Candle{
		CloseTime: time.Date(2024, 1, 1, 0, len(candles), 0, 0, time.UTC),
		Open:      candles[len(candles)-1].Close,
		High:      high, Low: low, Close: close,
		Volume: 10, TakerBuyVolume: 5,
	})
}

func newEngine() *Engine {
	params := strategy.DefaultParams()
	params.Strategy = strategy.NameOrderFlow
	return NewEngine(Config{Params: params, Window: 40})
}

func TestRun_TakeProfit(t *testing.T) {
	candles := withBar(sellOff(), 980, 960, 975)

	res, err := newEngine().Run("BTCUSDT", candles)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Signals)
	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, models.DirectionBuy, tr.Side)
	assert.Equal(t, ReasonTakeProfit, tr.Reason)
	assert.Equal(t, 961.0, tr.EntryPrice)
	assert.InDelta(t, 971.605, tr.ExitPrice, 1e-9)
	assert.Equal(t, candles[39].CloseTime, tr.EntryTime)
	assert.Equal(t, candles[40].CloseTime, tr.ExitTime)

	assert.Equal(t, 1, res.TotalTrades)
	assert.Equal(t, 1, res.WinningTrades)
	assert.Equal(t, 1.0, res.WinRate)
	assert.InDelta(t, (971.605-961)/961, res.AveragePnLPct, 1e-9)
}

func TestRun_StopLossWinsWhenBarTouchesBoth(t *testing.T) {
	candles := withBar(sellOff(), 980, 950, 960)

	res, err := newEngine().Run("BTCUSDT", candles)
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	tr := res.Trades[0]
	assert.Equal(t, ReasonStopLoss, tr.Reason)
	assert.InDelta(t, 955.6975, tr.ExitPrice, 1e-9)
	assert.Less(t, tr.PnLPct, 0.0)
	assert.Equal(t, 1, res.LosingTrades)
}

func TestRun_OpenAtEnd(t *testing.T) {
	candles := withBar(sellOff(), 962, 958, 960)

	res, err := newEngine().Run("BTCUSDT", candles)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ReasonOpen, res.Trades[0].Reason)
	assert.Equal(t, 960.0, res.Trades[0].ExitPrice)
	assert.Equal(t, 1, res.OpenTrades)
	assert.Zero(t, res.WinRate)
}

func TestRun_InsufficientData(t *testing.T) {
	_, err := newEngine().Run("BTCUSDT", sellOff()[:20])

	var dataErr *indicators.InsufficientDataError
	assert.True(t, errors.As(err, &dataErr))
}

func TestNewEngine_DefaultWindow(t *testing.T) {
	e := NewEngine(Config{Params: strategy.DefaultParams()})
	assert.Equal(t, DefaultWindow, e.config.Window)
}
