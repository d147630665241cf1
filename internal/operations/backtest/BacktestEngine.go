package backtest

import (
	"errors"
	"fmt"

	"wavewatch/internal/models"
	"wavewatch/internal/services/indicators"
	"wavewatch/internal/services/orderflow"
	"wavewatch/internal/services/strategy"
)

// Engine replays historical candles through the evaluator and simulates a
// trade for every new actionable signal.
type Engine struct {
	config    Config
	evaluator *strategy.Evaluator
}

func NewEngine(config Config) *Engine {
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	return &Engine{
		config:    config,
		evaluator: strategy.NewEvaluator(config.Params),
	}
}

// Run walks a rolling window over candles. A trade opens at the close of
// the bar that produced a new signal and closes on the first later bar
// whose range touches the stop or the target; the stop wins when a bar
// touches both. Only one trade is open at a time.
func (e *Engine) Run(symbol string, candles []models.Candle) (*Results, error) {
	if len(candles) < e.config.Window {
		return nil, &indicators.InsufficientDataError{What: "replay", Need: e.config.Window, Got: len(candles)}
	}

	results := &Results{Symbol: symbol}
	var open *Trade
	var prev *models.Signal
	openBar := -1

	for i := e.config.Window; i <= len(candles); i++ {
		bar := candles[i-1]

		if open != nil && i-1 > openBar && e.checkExit(open, bar) {
			results.Trades = append(results.Trades, *open)
			open = nil
		}

		sig, err := e.evaluate(symbol, candles[i-e.config.Window:i])
		if err != nil {
			var dataErr *indicators.InsufficientDataError
			if errors.As(err, &dataErr) {
				continue
			}
			return nil, fmt.Errorf("replay %s at bar %d: %w", symbol, i-1, err)
		}

		isNew := sig.IsActionable() && (prev == nil || !sig.SameAs(*prev))
		prev = &sig
		if !isNew {
			continue
		}
		results.Signals++

		if open == nil {
			open = &Trade{
				Symbol:     symbol,
				Label:      sig.Label,
				Side:       sig.Direction,
				EntryTime:  bar.CloseTime,
				EntryPrice: sig.Entry,
				StopLoss:   sig.StopLoss,
				TakeProfit: sig.TakeProfit,
			}
			openBar = i - 1
		}
	}

	if open != nil {
		last := candles[len(candles)-1]
		open.ExitTime = last.CloseTime
		open.ExitPrice = last.Close
		open.PnLPct = pnlPct(open.Side, open.EntryPrice, last.Close)
		open.Reason = ReasonOpen
		results.Trades = append(results.Trades, *open)
	}

	e.summarize(results)
	return results, nil
}

func (e *Engine) evaluate(symbol string, window []models.Candle) (models.Signal, error) {
	if e.config.Params.Strategy == strategy.NameOrderFlow {
		delta := orderflow.CandleDelta(window[len(window)-1])
		return e.evaluator.EvaluateOrderFlowDelta(symbol, window, delta)
	}
	return e.evaluator.EvaluateWave(symbol, window, nil)
}

// checkExit closes t if bar reached its stop or target.
func (e *Engine) checkExit(t *Trade, bar models.Candle) bool {
	var hitStop, hitTarget bool
	switch t.Side {
	case models.DirectionBuy:
		hitStop = bar.Low <= t.StopLoss
		hitTarget = bar.High >= t.TakeProfit
	case models.DirectionSell:
		hitStop = bar.High >= t.StopLoss
		hitTarget = bar.Low <= t.TakeProfit
	}

	switch {
	case hitStop:
		t.ExitPrice = t.StopLoss
		t.Reason = ReasonStopLoss
	case hitTarget:
		t.ExitPrice = t.TakeProfit
		t.Reason = ReasonTakeProfit
	default:
		return false
	}

	t.ExitTime = bar.CloseTime
	t.PnLPct = pnlPct(t.Side, t.EntryPrice, t.ExitPrice)
	return true
}

func (e *Engine) summarize(r *Results) {
	var closed int
	var sumPnL float64
	for _, t := range r.Trades {
		r.TotalTrades++
		if t.Reason == ReasonOpen {
			r.OpenTrades++
			continue
		}
		closed++
		sumPnL += t.PnLPct
		if t.PnLPct > 0 {
			r.WinningTrades++
		} else {
			r.LosingTrades++
		}
	}
	if closed > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(closed)
		r.AveragePnLPct = sumPnL / float64(closed)
	}
}

func pnlPct(side models.Direction, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if side == models.DirectionSell {
		return (entry - exit) / entry
	}
	return (exit - entry) / entry
}
