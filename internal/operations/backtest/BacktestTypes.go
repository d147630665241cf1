package backtest

import (
	"time"

	"wavewatch/internal/models"
	"wavewatch/internal/services/strategy"
)

// Trade is one simulated trade opened on a signal.
type Trade struct {
	Symbol     string
	Label      string
	Side       models.Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	TakeProfit float64
	PnLPct     float64
	Reason     string // "take_profit", "stop_loss", "open"
}

const (
	ReasonTakeProfit = "take_profit"
	ReasonStopLoss   = "stop_loss"
	ReasonOpen       = "open"
)

// Results of a replay
type Results struct {
	Symbol string

	// Trade metrics
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	OpenTrades    int
	WinRate       float64 // of closed trades
	AveragePnLPct float64 // of closed trades

	// Signals seen while replaying, including those skipped while a trade was open
	Signals int

	Trades []Trade
}

type Config struct {
	Params strategy.Params
	Window int // candles per evaluation
}

const DefaultWindow = 100

func NewConfig(params strategy.Params) Config {
	return Config{
		Params: params,
		Window: DefaultWindow,
	}
}
