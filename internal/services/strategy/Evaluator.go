package strategy

import (
	"fmt"

	"wavewatch/internal/models"
	"wavewatch/internal/services/indicators"
	"wavewatch/internal/services/orderflow"
	"wavewatch/internal/services/wave"
)

const (
	supportTolerance    = 1.002
	resistanceTolerance = 0.998
	stopBuffer          = 0.005
)

// Evaluator turns a candle window and recent trades into a Signal. It holds
// no state between calls.
type Evaluator struct {
	params  Params
	matcher *wave.Matcher
}

func NewEvaluator(params Params) *Evaluator {
	if params.RiskReward <= 0 {
		params.RiskReward = 2.0
	}
	return &Evaluator{
		params:  params,
		matcher: wave.NewMatcher(),
	}
}

// Evaluate runs the configured strategy.
func (e *Evaluator) Evaluate(symbol string, candles []models.Candle, trades []models.Trade) (models.Signal, error) {
	switch e.params.Strategy {
	case NameOrderFlow:
		return e.EvaluateOrderFlow(symbol, candles, trades)
	case NameWave:
		return e.EvaluateWave(symbol, candles, trades)
	}
	return models.Signal{}, fmt.Errorf("unknown strategy %q", e.params.Strategy)
}

// EvaluateOrderFlow buys oversold prices sitting on support while takers
// are net buyers, and sells overbought prices at resistance while takers are
// net sellers. Targets are RiskReward times the stop distance.
func (e *Evaluator) EvaluateOrderFlow(symbol string, candles []models.Candle, trades []models.Trade) (models.Signal, error) {
	delta := orderflow.Analyze(trades, e.params.MinNotional).Delta
	return e.EvaluateOrderFlowDelta(symbol, candles, delta)
}

// EvaluateOrderFlowDelta is EvaluateOrderFlow with a precomputed delta.
func (e *Evaluator) EvaluateOrderFlowDelta(symbol string, candles []models.Candle, delta float64) (models.Signal, error) {
	if len(candles) == 0 {
		return models.Signal{}, &indicators.InsufficientDataError{What: "candles", Need: 1, Got: 0}
	}

	rsi, err := indicators.LastRSI(models.Closes(candles), e.params.RSIPeriod)
	if err != nil {
		return models.Signal{}, fmt.Errorf("order flow %s: %w", symbol, err)
	}

	support, resistance, err := indicators.SupportResistance(models.Highs(candles), models.Lows(candles), e.params.SRWindow)
	if err != nil {
		return models.Signal{}, fmt.Errorf("order flow %s: %w", symbol, err)
	}

	last := candles[len(candles)-1]
	price := last.Close
	sig := e.newSignal(symbol, NameOrderFlow, last)
	sig.Indicators = models.Indicators{
		Price:      price,
		RSI:        rsi,
		Delta:      delta,
		Support:    support,
		Resistance: resistance,
	}

	switch {
	case rsi < e.params.RSIBuy && delta > 0 && price <= support*supportTolerance:
		stop := support * (1 - stopBuffer)
		sig.Label = LabelOrderFlowBuy
		sig.Direction = models.DirectionBuy
		sig.Entry = price
		sig.StopLoss = stop
		sig.TakeProfit = price + e.params.RiskReward*(price-stop)

	case rsi > e.params.RSISell && delta < 0 && price >= resistance*resistanceTolerance:
		stop := resistance * (1 + stopBuffer)
		sig.Label = LabelOrderFlowSell
		sig.Direction = models.DirectionSell
		sig.Entry = price
		sig.StopLoss = stop
		sig.TakeProfit = price - e.params.RiskReward*(stop-price)
	}

	return sig, nil
}

// EvaluateWave classifies the latest pivots with the wave matcher. Trades
// only feed the displayed delta.
func (e *Evaluator) EvaluateWave(symbol string, candles []models.Candle, trades []models.Trade) (models.Signal, error) {
	if len(candles) == 0 {
		return models.Signal{}, &indicators.InsufficientDataError{What: "candles", Need: 1, Got: 0}
	}

	rsiSeries, err := indicators.RSI(models.Closes(candles), e.params.RSIPeriod)
	if err != nil {
		return models.Signal{}, fmt.Errorf("wave %s: %w", symbol, err)
	}

	highs, lows := models.Highs(candles), models.Lows(candles)
	pivots := indicators.DetectPivots(highs, lows, rsiSeries, e.params.PivotRadius)

	last := candles[len(candles)-1]
	price := last.Close
	res := e.matcher.Match(pivots, price)

	sig := e.newSignal(symbol, NameWave, last)
	sig.Label = res.Label
	sig.Direction = res.Direction
	sig.Entry = res.Entry
	sig.StopLoss = res.StopLoss
	sig.TakeProfit = res.TakeProfit
	sig.Indicators = models.Indicators{
		Price: price,
		RSI:   rsiSeries[len(rsiSeries)-1],
		Delta: orderflow.Analyze(trades, e.params.MinNotional).Delta,
	}

	// Levels are informational for the wave strategy
	if support, resistance, err := indicators.SupportResistance(highs, lows, e.params.SRWindow); err == nil {
		sig.Indicators.Support = support
		sig.Indicators.Resistance = resistance
	}

	return sig, nil
}

func (e *Evaluator) newSignal(symbol, strategy string, last models.Candle) models.Signal {
	return models.Signal{
		Symbol:    symbol,
		Strategy:  strategy,
		Label:     LabelScanning,
		Direction: models.DirectionNeutral,
		Time:      last.CloseTime,
	}
}
