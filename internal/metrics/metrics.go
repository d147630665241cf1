// Package metrics holds the Prometheus collectors of the monitor.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Evaluation outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeProviderError    = "provider_error"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
)

type Metrics struct {
	CyclesTotal        prometheus.Counter
	CycleDuration      prometheus.Histogram
	SymbolsMonitored   prometheus.Gauge
	EvaluationsTotal   *prometheus.CounterVec // labels: outcome
	SignalsTotal       *prometheus.CounterVec // labels: direction
	NotificationsTotal *prometheus.CounterVec // labels: channel, result
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavewatch_cycles_total",
			Help: "Total completed polling cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavewatch_cycle_duration_seconds",
			Help:    "Wall time of one polling cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SymbolsMonitored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wavewatch_symbols_monitored",
			Help: "Number of symbols in the current settings",
		}),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavewatch_evaluations_total",
			Help: "Per-symbol evaluations by outcome",
		}, []string{"outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavewatch_signals_total",
			Help: "New actionable signals by direction",
		}, []string{"direction"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavewatch_notifications_total",
			Help: "Notification attempts by channel and result",
		}, []string{"channel", "result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CyclesTotal,
			m.CycleDuration,
			m.SymbolsMonitored,
			m.EvaluationsTotal,
			m.SignalsTotal,
			m.NotificationsTotal,
		)
	}
	return m
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetSymbols(n int) {
	if m == nil {
		return
	}
	m.SymbolsMonitored.Set(float64(n))
}

func (m *Metrics) Evaluation(outcome string) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Signal(direction string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(direction).Inc()
}

func (m *Metrics) Notification(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationsTotal.WithLabelValues(channel, result).Inc()
}
