package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wavewatch/internal/metrics"
)

const DefaultTimeout = 10 * time.Second

// Dispatcher fans an alert out to every channel in the background. Each
// send gets its own timeout and is detached from the caller's
// cancellation, so a stopped cycle does not drop an alert already decided.
type Dispatcher struct {
	channels []Notifier
	timeout  time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics

	wg sync.WaitGroup
}

func NewDispatcher(channels []Notifier, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		log:      log.With().Str("component", "dispatcher").Logger(),
		metrics:  m,
	}
}

func (d *Dispatcher) Channels() []Notifier {
	return d.channels
}

// Dispatch returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) {
	for _, ch := range d.channels {
		d.wg.Add(1)
		go func(ch Notifier) {
			defer d.wg.Done()
			d.send(ctx, ch, alert)
		}(ch)
	}
}

// Wait blocks until in-flight sends finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(parent context.Context, ch Notifier, alert Alert) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	defer cancel()

	err := ch.Send(ctx, alert)
	d.metrics.Notification(ch.Name(), err)
	if err != nil {
		var nerr *NotificationError
		if !errors.As(err, &nerr) {
			err = &NotificationError{Channel: ch.Name(), Err: err}
		}
		d.log.Warn().Err(err).
			Str("channel", ch.Name()).
			Str("symbol", alert.Signal.Symbol).
			Msg("notification failed")
		return
	}

	d.log.Debug().Str("channel", ch.Name()).Str("symbol", alert.Signal.Symbol).Msg("notification sent")
}
