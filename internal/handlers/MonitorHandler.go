package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wavewatch/internal/metrics"
	"wavewatch/internal/models"
	"wavewatch/internal/operations/binance"
	"wavewatch/internal/operations/notify"
	"wavewatch/internal/services/indicators"
	"wavewatch/internal/services/strategy"
)

// MarketDataProvider returns fresh candles and trades for a symbol.
type MarketDataProvider interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	GetRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
}

type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert notify.Alert)
}

// CycleObserver receives every completed cycle. OnCycle must not block.
type CycleObserver interface {
	OnCycle(res models.CycleResult)
}

type State int32

const (
	StateIdle State = iota
	StateFetching
	StateEvaluating
	StateNotifying
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateEvaluating:
		return "evaluating"
	case StateNotifying:
		return "notifying"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Settings is the immutable input of a polling run.
type Settings struct {
	Symbols      []string
	Timeframe    string
	PollInterval time.Duration
	CandleLimit  int
	TradeLimit   int
	Workers      int
	Params       strategy.Params
}

// Validate checks settings coming from config or from the API.
func (s Settings) Validate() error {
	if len(s.Symbols) == 0 {
		return errors.New("no symbols configured")
	}
	if _, ok := binance.IntervalDuration(s.Timeframe); !ok {
		return fmt.Errorf("unsupported timeframe %q", s.Timeframe)
	}
	if s.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if s.CandleLimit <= 0 {
		return errors.New("candle limit must be positive")
	}
	if s.TradeLimit < 0 {
		return errors.New("trade limit must not be negative")
	}
	name, err := strategy.ParseName(s.Params.Strategy)
	if err != nil {
		return err
	}
	if name != s.Params.Strategy {
		return fmt.Errorf("strategy %q is not canonical, use %q", s.Params.Strategy, name)
	}
	p := s.Params
	if p.RSIBuy < 0 || p.RSISell > 100 || p.RSIBuy >= p.RSISell {
		return fmt.Errorf("rsi thresholds %v/%v must satisfy 0 <= buy < sell <= 100", p.RSIBuy, p.RSISell)
	}
	if p.MinNotional < 0 {
		return errors.New("min notional must not be negative")
	}
	return nil
}

// ErrCycleAborted is returned by RunCycle when the cycle was cancelled
// before finishing, either by a settings change or by shutdown.
var ErrCycleAborted = errors.New("cycle aborted")

// Monitor polls the configured symbols, evaluates signals, notifies new
// ones and publishes every cycle to its observers.
type Monitor struct {
	provider   MarketDataProvider
	dispatcher AlertDispatcher
	observers  []CycleObserver
	store      *SignalStore
	metrics    *metrics.Metrics
	log        zerolog.Logger

	mu          sync.RWMutex
	settings    Settings
	evaluator   *strategy.Evaluator
	cancelCycle context.CancelFunc

	wake  chan struct{}
	state atomic.Int32
	now   func() time.Time
}

func NewMonitor(
	provider MarketDataProvider,
	dispatcher AlertDispatcher,
	settings Settings,
	log zerolog.Logger,
	m *metrics.Metrics,
	observers ...CycleObserver,
) (*Monitor, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Workers <= 0 {
		settings.Workers = 1
	}

	mon := &Monitor{
		provider:   provider,
		dispatcher: dispatcher,
		observers:  observers,
		store:      NewSignalStore(),
		metrics:    m,
		log:        log.With().Str("component", "monitor").Logger(),
		settings:   settings,
		evaluator:  strategy.NewEvaluator(settings.Params),
		wake:       make(chan struct{}, 1),
		now:        time.Now,
	}
	m.SetSymbols(len(settings.Symbols))
	return mon, nil
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
}

func (m *Monitor) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Monitor) Store() *SignalStore {
	return m.store
}

// UpdateSettings replaces the settings. An in-flight cycle is cancelled
// and discarded, and the next cycle starts without waiting for the timer.
func (m *Monitor) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Workers <= 0 {
		s.Workers = 1
	}

	m.mu.Lock()
	m.settings = s
	m.evaluator = strategy.NewEvaluator(s.Params)
	if m.cancelCycle != nil {
		m.cancelCycle()
	}
	m.mu.Unlock()

	m.store.Retain(s.Symbols)
	m.metrics.SetSymbols(len(s.Symbols))

	select {
	case m.wake <- struct{}{}:
	default:
	}

	m.log.Info().Strs("symbols", s.Symbols).Str("timeframe", s.Timeframe).
		Str("strategy", s.Params.Strategy).Msg("settings updated")
	return nil
}

// Run cycles until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info().Msg("monitor started")
	defer func() {
		m.setState(StateStopped)
		m.log.Info().Msg("monitor stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := m.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleAborted) {
			m.log.Error().Err(err).Msg("cycle failed")
		}

		m.setState(StateSleeping)
		timer := time.NewTimer(m.Settings().PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

type symbolResult struct {
	row   models.Row
	alert *models.Signal
	done  bool
}

// RunCycle evaluates every symbol once, dispatches new signals and
// publishes the result. A failing symbol never stops the others.
func (m *Monitor) RunCycle(ctx context.Context) (models.CycleResult, error) {
	// A pending wake is served by this cycle
	select {
	case <-m.wake:
	default:
	}

	m.mu.Lock()
	settings, evaluator := m.settings, m.evaluator
	cycleCtx, cancel := context.WithCancel(ctx)
	m.cancelCycle = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.cancelCycle = nil
		m.mu.Unlock()
		cancel()
	}()

	res := models.CycleResult{ID: uuid.NewString(), Started: m.now()}
	log := m.log.With().Str("cycle", res.ID).Logger()
	log.Debug().Int("symbols", len(settings.Symbols)).Msg("cycle started")

	results := make([]symbolResult, len(settings.Symbols))
	process := func(i int) {
		if cycleCtx.Err() != nil {
			return
		}
		results[i] = m.processSymbol(cycleCtx, log, settings, evaluator, settings.Symbols[i])
	}

	if settings.Workers <= 1 {
		for i := range settings.Symbols {
			process(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(settings.Workers)
		for i := range settings.Symbols {
			i := i
			g.Go(func() error {
				process(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	if cycleCtx.Err() != nil {
		log.Info().Msg("cycle aborted")
		return res, ErrCycleAborted
	}

	for _, r := range results {
		if !r.done {
			continue
		}
		res.Rows = append(res.Rows, r.row)
		if r.alert != nil {
			res.Alerts = append(res.Alerts, *r.alert)
		}
	}
	res.Finished = m.now()

	for _, o := range m.observers {
		o.OnCycle(res)
	}

	m.metrics.ObserveCycle(res.Finished.Sub(res.Started))
	log.Info().Int("rows", len(res.Rows)).Int("alerts", len(res.Alerts)).
		Dur("took", res.Finished.Sub(res.Started)).Msg("cycle finished")
	return res, nil
}

func (m *Monitor) processSymbol(
	ctx context.Context,
	log zerolog.Logger,
	settings Settings,
	evaluator *strategy.Evaluator,
	symbol string,
) symbolResult {
	log = log.With().Str("symbol", symbol).Logger()

	m.setState(StateFetching)
	candles, err := m.provider.GetCandles(ctx, symbol, settings.Timeframe, settings.CandleLimit)
	if err != nil {
		return m.skip(ctx, log, symbol, err)
	}

	var trades []models.Trade
	if settings.TradeLimit > 0 {
		trades, err = m.provider.GetRecentTrades(ctx, symbol, settings.TradeLimit)
		if err != nil {
			return m.skip(ctx, log, symbol, err)
		}
	}

	m.setState(StateEvaluating)
	sig, err := evaluator.Evaluate(symbol, candles, trades)
	if err != nil {
		return m.skip(ctx, log, symbol, err)
	}
	m.metrics.Evaluation(metrics.OutcomeOK)
	return m.publish(ctx, log, sig)
}

// publish records sig and dispatches it when new. UpdateSettings cancels
// the cycle under the write lock, so holding the read lock here means a
// signal is either published before a settings change or not at all.
func (m *Monitor) publish(ctx context.Context, log zerolog.Logger, sig models.Signal) symbolResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ctx.Err() != nil {
		return symbolResult{}
	}

	out := symbolResult{row: rowOf(sig), done: true}
	if m.store.Observe(sig) {
		m.setState(StateNotifying)
		m.metrics.Signal(string(sig.Direction))
		log.Info().Str("direction", string(sig.Direction)).Str("label", sig.Label).
			Float64("entry", sig.Entry).Float64("take_profit", sig.TakeProfit).
			Float64("stop_loss", sig.StopLoss).Msg("new signal")
		m.dispatcher.Dispatch(ctx, notify.NewAlert(sig))
		out.alert = &sig
	}
	return out
}

// skip turns a per-symbol failure into a neutral row. The symbol keeps its
// previous signal so a transient error does not re-arm the alert.
func (m *Monitor) skip(ctx context.Context, log zerolog.Logger, symbol string, err error) symbolResult {
	if ctx.Err() != nil {
		return symbolResult{}
	}

	row := models.Row{Symbol: symbol, Status: models.DirectionNeutral, Err: err.Error()}

	var provErr *binance.ProviderError
	var dataErr *indicators.InsufficientDataError
	switch {
	case errors.As(err, &provErr):
		m.metrics.Evaluation(metrics.OutcomeProviderError)
		row.Label = "provider error"
		log.Warn().Err(err).Msg("skipping symbol: provider error")
	case errors.As(err, &dataErr):
		m.metrics.Evaluation(metrics.OutcomeInsufficientData)
		row.Label = "not enough data"
		log.Info().Err(err).Msg("skipping symbol: insufficient data")
	default:
		m.metrics.Evaluation(metrics.OutcomeError)
		row.Label = "error"
		log.Error().Err(err).Msg("skipping symbol")
	}
	return symbolResult{row: row, done: true}
}

func rowOf(sig models.Signal) models.Row {
	return models.Row{
		Symbol:     sig.Symbol,
		Price:      finite(sig.Indicators.Price),
		RSI:        finite(sig.Indicators.RSI),
		Delta:      finite(sig.Indicators.Delta),
		Support:    finite(sig.Indicators.Support),
		Resistance: finite(sig.Indicators.Resistance),
		Label:      sig.Label,
		Status:     sig.Direction,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
